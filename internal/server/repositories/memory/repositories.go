package memory

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/authtokens"
)

type userRepo struct{ s *Store }

func (r *userRepo) NextID(ctx context.Context) (id int64, err error) {
	err = r.s.locked(func(st *state) error {
		st.userSeq++
		id = st.userSeq
		return nil
	})
	return id, err
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	return r.s.locked(func(st *state) error {
		if _, ok := st.users[user.ID]; ok {
			return duplicate("users.id")
		}
		for _, u := range st.users {
			if u.Email == user.Email {
				return errors.Join(duplicate("users.email"), common.ErrEmailTaken)
			}
			if u.UserName == user.UserName {
				return errors.Join(duplicate("users.username"), common.ErrUsernameTaken)
			}
		}
		user.CreatedAt = r.s.now()
		st.users[user.ID] = models.User{
			ID:           user.ID,
			UserName:     user.UserName,
			Email:        user.Email,
			PasswordHash: user.PasswordHash,
			Blocked:      user.Blocked,
			Verified:     user.Verified,
			CreatedAt:    user.CreatedAt,
		}
		return nil
	})
}

func (r *userRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id })
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r *userRepo) find(match func(models.User) bool) (out *models.User, err error) {
	err = r.s.locked(func(st *state) error {
		for _, u := range st.users {
			if match(u) {
				out = &u
				return nil
			}
		}
		return common.ErrorNotFound
	})
	return out, err
}

func (r *userRepo) IsEmailTaken(ctx context.Context, email string) (bool, error) {
	return r.taken(func(u models.User) bool { return u.Email == email })
}

func (r *userRepo) IsUsernameTaken(ctx context.Context, username string) (bool, error) {
	return r.taken(func(u models.User) bool { return u.UserName == username })
}

func (r *userRepo) taken(match func(models.User) bool) (bool, error) {
	_, err := r.find(match)
	if errors.Is(err, common.ErrorNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *userRepo) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return r.update(id, func(u *models.User) { u.PasswordHash = hash })
}

func (r *userRepo) UpdateBlockedVerifiedFlags(ctx context.Context, id int64, blocked, verified bool) error {
	return r.update(id, func(u *models.User) {
		u.Blocked = blocked
		u.Verified = verified
	})
}

func (r *userRepo) update(id int64, fn func(u *models.User)) error {
	return r.s.locked(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return common.ErrorNotFound
		}
		fn(&u)
		st.users[id] = u
		return nil
	})
}

type roleRepo struct{ s *Store }

func (r *roleRepo) FindByName(ctx context.Context, name string) (out *models.Role, err error) {
	err = r.s.locked(func(st *state) error {
		for _, role := range st.roles {
			if role.Name == name {
				out = &role
				return nil
			}
		}
		return common.ErrorNotFound
	})
	return out, err
}

func (r *roleRepo) AttachToUser(ctx context.Context, userID, roleID int64) error {
	return r.s.locked(func(st *state) error {
		if _, ok := st.users[userID]; !ok {
			return common.ErrorNotFound
		}
		if _, ok := st.roles[roleID]; !ok {
			return common.ErrorNotFound
		}
		if !slices.Contains(st.userRoles[userID], roleID) {
			st.userRoles[userID] = append(st.userRoles[userID], roleID)
		}
		return nil
	})
}

func (r *roleRepo) FindByUserID(ctx context.Context, userID int64) (out []models.Role, err error) {
	err = r.s.locked(func(st *state) error {
		ids := slices.Clone(st.userRoles[userID])
		slices.Sort(ids)
		for _, id := range ids {
			out = append(out, st.roles[id])
		}
		return nil
	})
	return out, err
}

type confirmationRepo struct{ s *Store }

func (r *confirmationRepo) NextID(ctx context.Context) (id int64, err error) {
	err = r.s.locked(func(st *state) error {
		st.confirmSeq++
		id = st.confirmSeq
		return nil
	})
	return id, err
}

func (r *confirmationRepo) Create(ctx context.Context, token *models.ConfirmationToken, validity time.Duration) error {
	return r.s.locked(func(st *state) error {
		if _, ok := st.confirmation[token.ID]; ok {
			return duplicate("confirmation_tokens.id")
		}
		if _, ok := st.users[token.UserID]; !ok {
			return common.ErrorNotFound
		}
		now := r.s.now()
		token.CreatedAt = now
		token.ExpiresAt = now.Add(validity)
		st.confirmation[token.ID] = *token
		return nil
	})
}

func (r *confirmationRepo) FindByID(ctx context.Context, id int64) (out *models.ConfirmationToken, err error) {
	err = r.s.locked(func(st *state) error {
		t, ok := st.confirmation[id]
		if !ok {
			return common.ErrorNotFound
		}
		out = &t
		return nil
	})
	return out, err
}

func (r *confirmationRepo) Retire(ctx context.Context, id int64, at time.Time) (retired bool, err error) {
	err = r.s.locked(func(st *state) error {
		t, ok := st.confirmation[id]
		if !ok || !t.ExpiresAt.After(at) {
			return nil
		}
		t.ExpiresAt = at
		st.confirmation[id] = t
		retired = true
		return nil
	})
	return retired, err
}

type authTokenRepo struct {
	s     *Store
	table authtokens.Table
}

func (r *authTokenRepo) Create(ctx context.Context, userID int64, token string, expiresAt time.Time) (id int64, err error) {
	err = r.s.locked(func(st *state) error {
		tbl := st.tokens[r.table]
		if _, ok := tbl[token]; ok {
			return duplicate(string(r.table) + ".token")
		}
		st.authSeq++
		id = st.authSeq
		tbl[token] = models.AuthToken{
			ID:        id,
			UserID:    userID,
			Token:     token,
			ExpiresAt: expiresAt,
			CreatedAt: r.s.now(),
		}
		return nil
	})
	return id, err
}

func (r *authTokenRepo) Find(ctx context.Context, token string) (out *models.AuthToken, err error) {
	err = r.s.locked(func(st *state) error {
		t, ok := st.tokens[r.table][token]
		if !ok {
			return common.ErrorNotFound
		}
		out = &t
		return nil
	})
	return out, err
}

func (r *authTokenRepo) Delete(ctx context.Context, token string) error {
	return r.s.locked(func(st *state) error {
		delete(st.tokens[r.table], token)
		return nil
	})
}

func (r *authTokenRepo) DeleteByUser(ctx context.Context, userID int64) (n int64, err error) {
	err = r.s.locked(func(st *state) error {
		for k, t := range st.tokens[r.table] {
			if t.UserID == userID {
				delete(st.tokens[r.table], k)
				n++
			}
		}
		return nil
	})
	return n, err
}
