package domain

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"quickbite/pkg/session"
)

// Actor is any authenticated party. Each role has its own variant struct
// carrying only the profile fields that role owns.
type Actor interface {
	Ref() session.Principal
	Authenticate(password string) bool
}

type Identity struct {
	ID           int64        `json:"id"`
	Role         session.Role `json:"role"`
	Email        string       `json:"email"`
	Name         string       `json:"name"`
	PasswordHash string       `json:"-"`
	CreatedAt    time.Time    `json:"created_at"`
}

func (i Identity) Ref() session.Principal {
	return session.Principal{ActorID: i.ID, Role: i.Role}
}

func (i Identity) Authenticate(password string) bool {
	if i.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(i.PasswordHash), []byte(password)) == nil
}

type Admin struct {
	Identity
}

type Restaurant struct {
	Identity
	Address       string  `json:"address"`
	Contact       string  `json:"contact"`
	Logo          string  `json:"logo"`
	Bio           string  `json:"bio"`
	PaybillNumber string  `json:"paybill_number"`
	Rating        float64 `json:"rating"`
}

type Customer struct {
	Identity
	Contact string `json:"contact"`
	Image   string `json:"image"`
}

type Agent struct {
	Identity
	Contact      string  `json:"contact"`
	Image        string  `json:"image"`
	RestaurantID int64   `json:"restaurant_id"`
	Rating       float64 `json:"rating"`
}

const (
	DefaultRestaurantRating = 3.0
	DefaultAgentRating      = 5.0
)

// Account is the storage shape of every actor: one row of the accounts
// table, with columns that do not apply to the role left zero.
type Account struct {
	Identity
	Address       string
	Contact       string
	Image         string
	Bio           string
	PaybillNumber string
	RestaurantID  *int64
	Rating        *float64
}

// Actor narrows the row to the variant matching its role.
func (a *Account) Actor() Actor {
	switch a.Role {
	case session.RoleAdmin:
		return &Admin{Identity: a.Identity}
	case session.RoleRestaurant:
		return &Restaurant{
			Identity:      a.Identity,
			Address:       a.Address,
			Contact:       a.Contact,
			Logo:          a.Image,
			Bio:           a.Bio,
			PaybillNumber: a.PaybillNumber,
			Rating:        ratingOr(a.Rating, DefaultRestaurantRating),
		}
	case session.RoleCustomer:
		return &Customer{Identity: a.Identity, Contact: a.Contact, Image: a.Image}
	case session.RoleAgent:
		agent := &Agent{
			Identity: a.Identity,
			Contact:  a.Contact,
			Image:    a.Image,
			Rating:   ratingOr(a.Rating, DefaultAgentRating),
		}
		if a.RestaurantID != nil {
			agent.RestaurantID = *a.RestaurantID
		}
		return agent
	}
	return &a.Identity
}

func ratingOr(r *float64, def float64) float64 {
	if r == nil {
		return def
	}
	return *r
}

// ProfilePatch changes only the non-nil fields. Fields a role does not own
// are ignored by the service before reaching storage.
type ProfilePatch struct {
	Name          *string `json:"name"`
	Address       *string `json:"address"`
	Contact       *string `json:"contact"`
	Bio           *string `json:"bio"`
	PaybillNumber *string `json:"paybill_number"`
}

type SignupInput struct {
	Role          session.Role `json:"role"`
	Email         string       `json:"email"`
	Password      string       `json:"password"`
	Name          string       `json:"name"`
	Address       string       `json:"address"`
	Contact       string       `json:"contact"`
	Bio           string       `json:"bio"`
	PaybillNumber string       `json:"paybill_number"`
}
