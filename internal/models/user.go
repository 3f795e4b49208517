package models

const UsersCollection = "users"

// User is a profile document. FreeNow is the live "free now" flag the
// friends view projects for each peer.
type User struct {
	ID       string `bson:"_id,omitempty" json:"id"`
	Username string `bson:"username" json:"username"`
	Email    string `bson:"email" json:"email"`
	FreeNow  bool   `bson:"free_now" json:"free_now"`
}
