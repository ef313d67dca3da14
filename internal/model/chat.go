package model

import (
    "time"

    "go.mongodb.org/mongo-driver/bson/primitive"
)

const (
    SenderUser  = "user"
    SenderAdmin = "admin"
)

// ChatThread is the single conversation between one shopper and the admin
// desk, stored as a MongoDB document with its messages embedded.
type ChatThread struct {
    ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
    UserID    uint64             `bson:"userId" json:"userId"`
    UserName  string             `bson:"userName" json:"userName"`
    Email     string             `bson:"email" json:"email"`
    Messages  []ChatMessage      `bson:"messages" json:"messages"`
    CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
    UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type ChatMessage struct {
    SenderRole string    `bson:"senderRole" json:"senderRole"`
    Message    string    `bson:"message" json:"message"`
    CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}
