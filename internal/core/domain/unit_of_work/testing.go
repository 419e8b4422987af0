package uow

import (
	"context"
	"fmt"
	resettoken "recoverme/internal/core/domain/reset_token"
	"recoverme/internal/core/domain/user"
	"sync"
)

// FakeUnitOfWorkContext serializes units of work and restores the fake
// repositories on rollback, which is enough to emulate row locks and atomicity.
type FakeUnitOfWorkContext struct {
	uow    *FakeUnitOfWork
	users  []user.User
	tokens []resettoken.Token
	done   bool
}

func (c *FakeUnitOfWorkContext) Rollback(ctx context.Context) error {
	if c.done {
		return nil
	}
	c.uow.UserRepository.Restore(c.users)
	c.uow.ResetTokenRepository.Restore(c.tokens)
	c.finish(false)
	return nil
}

func (c *FakeUnitOfWorkContext) Commit(ctx context.Context) error {
	if c.done {
		return fmt.Errorf("unit of work is already finished")
	}
	if c.uow.CommitErr != nil {
		c.uow.UserRepository.Restore(c.users)
		c.uow.ResetTokenRepository.Restore(c.tokens)
		c.finish(false)
		return c.uow.CommitErr
	}
	c.finish(true)
	return nil
}

func (c *FakeUnitOfWorkContext) Users() user.UserRepository {
	return c.uow.UserRepository
}

func (c *FakeUnitOfWorkContext) ResetTokens() resettoken.Repository {
	return c.uow.ResetTokenRepository
}

func (c *FakeUnitOfWorkContext) finish(committed bool) {
	c.done = true
	c.uow.stats.Lock()
	if committed {
		c.uow.Commits++
	} else {
		c.uow.Rollbacks++
	}
	c.uow.stats.Unlock()
	c.uow.lock.Unlock()
}

type FakeUnitOfWork struct {
	UserRepository       *user.FakeUserRepository
	ResetTokenRepository *resettoken.FakeRepository
	BeginErr             error
	CommitErr            error
	Commits              int
	Rollbacks            int
	lock                 sync.Mutex
	stats                sync.Mutex
}

func NewFakeUnitOfWork() *FakeUnitOfWork {
	return &FakeUnitOfWork{
		UserRepository:       user.NewFakeUserRepository(),
		ResetTokenRepository: resettoken.NewFakeRepository(),
	}
}

func (u *FakeUnitOfWork) Begin(ctx context.Context) (Context, error) {
	if u.BeginErr != nil {
		return nil, u.BeginErr
	}
	u.lock.Lock()
	return &FakeUnitOfWorkContext{
		uow:    u,
		users:  u.UserRepository.Snapshot(),
		tokens: u.ResetTokenRepository.Snapshot(),
	}, nil
}
