package store

import "go.mongodb.org/mongo-driver/bson/primitive"

// ObjectID aliases the driver type so callers need not import primitive.
type ObjectID = primitive.ObjectID
