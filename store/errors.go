package store

import "fmt"

type (
	UserNotFound struct {
		ID    int64
		Email string
	}

	TaskNotFound struct {
		ID int64
	}

	DuplicateEmail struct {
		Email string
	}
)

func (u UserNotFound) Error() string {
	if u.Email != "" {
		return fmt.Sprintf("user %v not found", u.Email)
	}
	return fmt.Sprintf("user %v not found", u.ID)
}

func (t TaskNotFound) Error() string {
	return fmt.Sprintf("task %v not found", t.ID)
}

func (d DuplicateEmail) Error() string {
	return fmt.Sprintf("email %v is already registered", d.Email)
}
