package testutils

import (
	"math/rand"
	"strings"

	"github.com/google/uuid"
	"github.com/icrowley/fake"
	"syreclabs.com/go/faker"

	search "github.com/krew-solutions/omnisearch-go/omnisearch/search/domain"
)

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

func (p Priority) Name() string {
	return string(p)
}

func (Priority) Constants() []search.Enum {
	return []search.Enum{PriorityLow, PriorityMedium, PriorityHigh}
}

func (p Priority) IsCandidate(token string) bool {
	return p == PriorityHigh && strings.EqualFold(token, "urgent")
}

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
	RoleGuest Role = "GUEST"
)

func (r Role) Name() string {
	return string(r)
}

func (Role) Constants() []search.Enum {
	return []search.Enum{RoleUser, RoleAdmin, RoleGuest}
}

// Entity holds the fields every persistent record shares.
type Entity struct {
	ID        uuid.UUID   `db:"id"`
	CreatedIn search.Year `db:"created_in"`
}

type Address struct {
	Street string `db:"street"`
	City   string `db:"city"`
}

type Contact struct {
	ID        int64     `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
}

type User struct {
	Entity
	Name     string    `db:"name"`
	Email    string    `db:"email"`
	Active   bool      `db:"active"`
	Priority Priority  `db:"priority"`
	Age      int       `db:"age"`
	Address  Address   `db:"address"`
	Roles    []Role    `omnisearch:"collection"`
	Contacts []Contact
	Password string    `db:"password" omnisearch:"-"`
	Session  string    `db:"-"`
	note     string
}

var (
	AliceID = uuid.MustParse("6f1c2a52-4a4e-4a8e-9d3c-1f0d7a6f2b01")
	BobID   = uuid.MustParse("6f1c2a52-4a4e-4a8e-9d3c-1f0d7a6f2b02")
	DaveID  = uuid.MustParse("6f1c2a52-4a4e-4a8e-9d3c-1f0d7a6f2b03")
)

// SeedUsers returns Alice, Bob and Dave.
func SeedUsers() []User {
	return []User{
		{
			Entity:   Entity{ID: AliceID, CreatedIn: 2023},
			Name:     "Alice",
			Email:    "alice@example.com",
			Active:   true,
			Priority: PriorityHigh,
			Age:      30,
			Address:  Address{Street: "Rue de Rivoli", City: "Paris"},
			Roles:    []Role{RoleUser, RoleAdmin},
			Contacts: []Contact{
				{ID: 1, UserID: AliceID, FirstName: "Contact1", LastName: "Last1"},
				{ID: 2, UserID: AliceID, FirstName: "Contact2", LastName: "Last2"},
			},
			Password: "alice-secret",
			Session:  "alice-session",
			note:     "vip",
		},
		{
			Entity:   Entity{ID: BobID, CreatedIn: 2024},
			Name:     "Bob",
			Email:    "bob@example.com",
			Active:   false,
			Priority: PriorityMedium,
			Age:      25,
			Address:  Address{Street: "Unter den Linden", City: "Berlin"},
			Roles:    []Role{RoleGuest},
			Password: "bob-secret",
		},
		{
			Entity:   Entity{ID: DaveID, CreatedIn: 2024},
			Name:     "Dave",
			Email:    "charlie@example.net",
			Active:   true,
			Priority: PriorityLow,
			Age:      41,
			Address:  Address{Street: "Rua Augusta", City: "Lisbon"},
			Roles:    []Role{RoleUser},
			Password: "dave-secret",
		},
	}
}

// RandomUsers generates n users with fake personal data.
func RandomUsers(n int) []User {
	priorities := PriorityLow.Constants()
	roles := RoleUser.Constants()
	users := make([]User, n)
	for i := range users {
		id := uuid.New()
		user := User{
			Entity:   Entity{ID: id, CreatedIn: search.Year(2000 + rand.Intn(25))},
			Name:     faker.Name().Name(),
			Email:    faker.Internet().Email(),
			Active:   rand.Intn(2) == 0,
			Priority: priorities[rand.Intn(len(priorities))].(Priority),
			Age:      18 + rand.Intn(60),
			Address:  Address{Street: fake.Street(), City: faker.Address().City()},
		}
		for j := rand.Intn(len(roles) + 1); j > 0; j-- {
			user.Roles = append(user.Roles, roles[rand.Intn(len(roles))].(Role))
		}
		for j := rand.Intn(3); j > 0; j-- {
			user.Contacts = append(user.Contacts, Contact{
				ID:        int64(i*10 + j),
				UserID:    id,
				FirstName: fake.FirstName(),
				LastName:  fake.LastName(),
			})
		}
		users[i] = user
	}
	return users
}
