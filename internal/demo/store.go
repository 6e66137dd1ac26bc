// Copyright (c) 2025 The ksadmin authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package demo

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"

	"github.com/ksadmin/ksadmin/internal/api"
)

// account is a stored user plus the secrets the API never exposes.
type account struct {
	user         api.User
	passwordHash []byte
	otpSecret    string

	// heldLogin is the login response parked while the account awaits
	// OTP verification.
	heldLogin *api.LoginResponse
}

// accountStore is the demo backend's in-memory user database.
type accountStore struct {
	mu       sync.Mutex
	byEmail  map[string]*account
	byID     map[string]*account
	settings api.AppSettings
}

// bcrypt.MinCost keeps seeding fast; the demo holds no real secrets.
const demoBcryptCost = bcrypt.MinCost

func newAccountStore() *accountStore {
	session := int64(1800)
	forgot := int64(300)
	registration := int64(600)
	s := &accountStore{
		byEmail: make(map[string]*account),
		byID:    make(map[string]*account),
		settings: api.AppSettings{
			SessionExpirySecs:           &session,
			ForgotPasswordOTPExpirySecs: &forgot,
			RegistrationOTPExpirySecs:   &registration,
		},
	}
	s.seed()
	return s
}

// DemoAdminEmail and DemoAdminPassword sign in to the seeded admin
// account.
const (
	DemoAdminEmail    = "admin@ksadmin.local"
	DemoAdminPassword = "admin-demo-1"
)

var seedProfiles = []struct {
	first, last, city, country string
}{
	{"Ana", "Souza", "Lisbon", "Portugal"},
	{"Bram", "Visser", "Utrecht", "Netherlands"},
	{"Chen", "Wei", "Singapore", "Singapore"},
	{"Dana", "Kovac", "Zagreb", "Croatia"},
	{"Emil", "Hansen", "Aarhus", "Denmark"},
	{"Farah", "Aziz", "Kuala Lumpur", "Malaysia"},
	{"Gita", "Rao", "Pune", "India"},
	{"Hugo", "Marchand", "Lyon", "France"},
	{"Ines", "Costa", "Porto", "Portugal"},
	{"Jonas", "Keller", "Bern", "Switzerland"},
	{"Kara", "Nilsen", "Bergen", "Norway"},
	{"Luca", "Ricci", "Turin", "Italy"},
}

func (s *accountStore) seed() {
	now := time.Now()

	admin := s.create(api.RegistrationRequest{
		FirstName: "Demo",
		LastName:  "Admin",
		Email:     DemoAdminEmail,
		Password:  DemoAdminPassword,
		Roles:     []string{"ADMIN", "USER"},
	}, now.AddDate(0, -6, 0))
	admin.user.Active = true
	f := false
	admin.user.IsAccountVerificationPending = &f
	admin.user.IsFirstLogin = &f

	for i, p := range seedProfiles {
		email := fmt.Sprintf("%s.%s@example.com",
			strings.ToLower(p.first), strings.ToLower(p.last))
		acct := s.create(api.RegistrationRequest{
			FirstName: p.first,
			LastName:  p.last,
			Email:     email,
			Password:  "user-demo-" + strings.ToLower(p.first),
			Address:   api.Address{City: p.city, Country: p.country},
			Roles:     []string{"USER"},
		}, now.AddDate(0, 0, -i*9))

		// Most fixtures are verified; a few stay pending so the
		// dashboard counters have something to show.
		if i%5 != 4 {
			acct.user.Active = true
			verified := false
			acct.user.IsAccountVerificationPending = &verified
		}
		if i%3 != 0 {
			first := false
			acct.user.IsFirstLogin = &first
		}
	}
}

// create inserts a new account. Caller holds no lock during seeding;
// runtime callers go through register which locks.
func (s *accountStore) create(req api.RegistrationRequest, createdAt time.Time) *account {
	hash, _ := bcrypt.GenerateFromPassword([]byte(req.Password), demoBcryptCost)

	key, _ := totp.Generate(totp.GenerateOpts{
		Issuer:      "ksadmin-demo",
		AccountName: req.Email,
	})

	id := uuid.NewString()
	pending := true
	firstLogin := true
	roles := req.Roles
	if len(roles) == 0 {
		roles = []string{"USER"}
	}

	acct := &account{
		user: api.User{
			ID:                           id,
			Email:                        req.Email,
			Username:                     strings.Split(req.Email, "@")[0],
			Roles:                        roles,
			Active:                       false,
			CreatedAt:                    createdAt,
			IsAccountVerificationPending: &pending,
			IsFirstLogin:                 &firstLogin,
			Profile: &api.Profile{
				ID:          uuid.NewString(),
				FirstName:   req.FirstName,
				LastName:    req.LastName,
				Email:       req.Email,
				PhoneNumber: req.PhoneNumber,
				Address:     req.Address,
				Username:    strings.Split(req.Email, "@")[0],
			},
		},
		passwordHash: hash,
	}
	if key != nil {
		acct.otpSecret = key.Secret()
	}

	s.byEmail[strings.ToLower(req.Email)] = acct
	s.byID[id] = acct
	return acct
}

func (s *accountStore) get(email string) *account {
	return s.byEmail[strings.ToLower(email)]
}

func (s *accountStore) getByID(id string) *account {
	return s.byID[id]
}

func (s *accountStore) delete(email string) bool {
	acct := s.get(email)
	if acct == nil {
		return false
	}
	delete(s.byEmail, strings.ToLower(email))
	delete(s.byID, acct.user.ID)
	return true
}

// list returns all users matching filter, sorted per the query.
func (s *accountStore) list(q api.PageQuery, filter func(api.User) bool) *api.UserPage {
	var users []api.User
	for _, acct := range s.byEmail {
		if filter == nil || filter(acct.user) {
			users = append(users, acct.user)
		}
	}

	sort.Slice(users, func(i, j int) bool {
		var less bool
		switch q.SortBy {
		case "email":
			less = users[i].Email < users[j].Email
		case "username":
			less = users[i].Username < users[j].Username
		default:
			less = users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		if q.Direction == "desc" {
			return !less
		}
		return less
	})

	size := q.Size
	if size <= 0 {
		size = 50
	}
	total := len(users)
	totalPages := (total + size - 1) / size
	if totalPages == 0 {
		totalPages = 1
	}

	start := q.Page * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	return &api.UserPage{
		Content:       users[start:end],
		TotalElements: int64(total),
		TotalPages:    totalPages,
		Number:        q.Page,
		Size:          size,
		First:         q.Page == 0,
		Last:          q.Page >= totalPages-1,
	}
}

// stats computes the dashboard counters over the whole store.
func (s *accountStore) stats() api.DashboardStats {
	var out api.DashboardStats
	monthStart := time.Now().AddDate(0, -1, 0)

	for _, acct := range s.byEmail {
		u := acct.user
		out.TotalUsers++
		if u.Active {
			out.ActiveUsers++
		}
		if u.IsAccountVerificationPending != nil && *u.IsAccountVerificationPending {
			out.PendingVerifications++
		}
		if u.IsFirstLogin != nil && *u.IsFirstLogin {
			out.FirstTimeLogins++
		}
		if u.CreatedAt.After(monthStart) {
			out.NewUsersThisMonth++
		}

		admin := hasRole(u.Roles, "ADMIN")
		user := hasRole(u.Roles, "USER")
		switch {
		case admin && user:
			out.BothAdminAndUser++
			out.AdminUsers++
		case admin:
			out.AdminUsers++
		default:
			out.RegularUsers++
		}
	}
	return out
}

func hasRole(roles []string, want string) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
	}
	return false
}
