package model

import "time"

type Subscriber struct {
    ID        uint64    `json:"id"`
    Email     string    `json:"email"`
    CreatedAt time.Time `json:"createdAt"`
}
