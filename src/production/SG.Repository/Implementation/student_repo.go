package implementation

import (
	"context"

	sgmodels "gitlab.com/smartguard1/sg.access_relay/src/production/SG.Models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type MongoStudentRepository struct {
	coll *mongo.Collection
}

func NewMongoStudentRepository(client *mongo.Client, database, collection string) *MongoStudentRepository {
	return &MongoStudentRepository{
		coll: client.Database(database).Collection(collection),
	}
}

// GetByCardID performs a point read keyed by the card id.
func (r *MongoStudentRepository) GetByCardID(ctx context.Context, cardID string) (*sgmodels.Student, error) {
	var student sgmodels.Student

	err := r.coll.FindOne(ctx, bson.M{"_id": cardID}).Decode(&student)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &student, nil
}

// FindByFingerprintID walks every student record and returns the first one
// whose fprints contains the given id. The scan is intentionally done
// client-side over the whole collection, matching the directory's
// fetch-all contract; first match wins and no scan order is imposed.
func (r *MongoStudentRepository) FindByFingerprintID(ctx context.Context, fingerprintID int) (*sgmodels.Student, error) {
	cursor, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var student sgmodels.Student
		if err := cursor.Decode(&student); err != nil {
			return nil, err
		}
		if student.HasFingerprint(fingerprintID) {
			return &student, nil
		}
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return nil, nil
}
