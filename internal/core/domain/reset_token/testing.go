package resettoken

import (
	"context"
	"fmt"
	c "recoverme/internal/core/domain/common"
	"recoverme/internal/core/domain/user"
	"sync"
	"time"

	"github.com/google/uuid"
)

type FakeRepository struct {
	Tokens      []Token
	CreateErr   error
	ConsumeErr  error
	ReturnError bool
	lock        sync.Mutex
}

func NewFakeRepository() *FakeRepository {
	return &FakeRepository{}
}

func (r *FakeRepository) Create(ctx context.Context, input CreateInput) (t Token, err error) {
	if r.CreateErr != nil {
		return t, r.CreateErr
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, existing := range r.Tokens {
		if existing.Hash == input.Hash {
			return t, fmt.Errorf("token hash already exists")
		}
		if existing.OwnerID == input.OwnerID && existing.State == Issued {
			return t, fmt.Errorf("issued token already exists for owner %d", input.OwnerID)
		}
	}
	t = Token{
		ID:         input.ID,
		OwnerID:    input.OwnerID,
		OwnerEmail: input.OwnerEmail,
		Hash:       input.Hash,
		State:      Issued,
		CreatedAt:  input.CreatedAt,
		ExpiresAt:  input.ExpiresAt,
	}
	r.Tokens = append(r.Tokens, t)
	return t, nil
}

func (r *FakeRepository) SupersedeIssued(ctx context.Context, ownerID user.ID, at time.Time) (int64, error) {
	if r.ReturnError {
		return 0, fmt.Errorf("could not supersede tokens")
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	count := int64(0)
	for ix, t := range r.Tokens {
		if t.OwnerID == ownerID && t.State == Issued {
			r.Tokens[ix].State = Superseded
			r.Tokens[ix].SupersededAt = c.NewOptional(at, true)
			count++
		}
	}
	return count, nil
}

func (r *FakeRepository) GetByHashForUpdate(ctx context.Context, hash Hash) (t Token, err error) {
	if r.ReturnError {
		return t, fmt.Errorf("could not get token")
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, t := range r.Tokens {
		if t.Hash == hash {
			return t, nil
		}
	}
	return t, ErrTokenDoesNotExist
}

func (r *FakeRepository) Consume(ctx context.Context, id uuid.UUID, at time.Time) error {
	if r.ConsumeErr != nil {
		return r.ConsumeErr
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	for ix, t := range r.Tokens {
		if t.ID == id && t.State == Issued {
			r.Tokens[ix].State = Consumed
			r.Tokens[ix].ConsumedAt = c.NewOptional(at, true)
			return nil
		}
	}
	return ErrTokenDoesNotExist
}

func (r *FakeRepository) DeleteExpiredBefore(ctx context.Context, before time.Time) (int64, error) {
	if r.ReturnError {
		return 0, fmt.Errorf("could not delete tokens")
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	kept := make([]Token, 0, len(r.Tokens))
	for _, t := range r.Tokens {
		if t.ExpiresAt.Before(before) {
			continue
		}
		kept = append(kept, t)
	}
	deleted := int64(len(r.Tokens) - len(kept))
	r.Tokens = kept
	return deleted, nil
}

func (r *FakeRepository) IssuedFor(ownerID user.ID) []Token {
	r.lock.Lock()
	defer r.lock.Unlock()
	issued := make([]Token, 0, 1)
	for _, t := range r.Tokens {
		if t.OwnerID == ownerID && t.State == Issued {
			issued = append(issued, t)
		}
	}
	return issued
}

func (r *FakeRepository) Count() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.Tokens)
}

func (r *FakeRepository) Snapshot() []Token {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]Token(nil), r.Tokens...)
}

func (r *FakeRepository) Restore(tokens []Token) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.Tokens = tokens
}

// FakeGenerator issues "token-1", "token-2", ... and hashes them as "hash:<raw>".
type FakeGenerator struct {
	Err     error
	counter int
	lock    sync.Mutex
}

func NewFakeGenerator() *FakeGenerator {
	return &FakeGenerator{}
}

func (g *FakeGenerator) Generate() (RawToken, Hash, error) {
	if g.Err != nil {
		return "", "", g.Err
	}
	g.lock.Lock()
	g.counter++
	raw := RawToken(fmt.Sprintf("token-%d", g.counter))
	g.lock.Unlock()
	return raw, g.Hash(raw), nil
}

func (g *FakeGenerator) Hash(token RawToken) Hash {
	return Hash("hash:" + string(token))
}

type SentLink struct {
	To        c.Email
	Token     RawToken
	ExpiresAt time.Time
}

type FakeLinkSender struct {
	Sent        []SentLink
	ReturnError bool
	lock        sync.Mutex
}

func NewFakeLinkSender() *FakeLinkSender {
	return &FakeLinkSender{}
}

func (s *FakeLinkSender) SendPasswordResetLink(
	ctx context.Context,
	to c.Email,
	token RawToken,
	expiresAt time.Time,
) error {
	if s.ReturnError {
		return fmt.Errorf("could not send password reset link")
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.Sent = append(s.Sent, SentLink{To: to, Token: token, ExpiresAt: expiresAt})
	return nil
}

func (s *FakeLinkSender) SentCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.Sent)
}

func (s *FakeLinkSender) LastSent() SentLink {
	s.lock.Lock()
	defer s.lock.Unlock()
	l := len(s.Sent)
	if l == 0 {
		panic("Sent count is 0.")
	}
	return s.Sent[l-1]
}
