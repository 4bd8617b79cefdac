package users

// UserRepo is the authoritative map from email to account. Every method is
// atomic on its own; no transaction spans several calls.
type UserRepo interface {
	// Insert adds user, failing with ErrAlreadyExists if the email is taken.
	Insert(user User) error
	// Get returns a copy of the account.
	Get(email string) (User, bool)
	// Mutate applies fn to a copy of the account and stores the copy if fn
	// succeeds.
	Mutate(email string, fn func(*User) error) error
	// Snapshot returns copies of all accounts ordered by email.
	Snapshot() []User
	// Replace swaps the whole contents for users.
	Replace(users []User)
	Count() int
}
