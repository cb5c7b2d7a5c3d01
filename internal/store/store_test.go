package store

import (
	"sync"
	"testing"

	"github.com/petroquant/crudesim/internal/types"
	"github.com/petroquant/crudesim/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ResultStoreTestSuite struct {
	suite.Suite
}

func TestResultStoreSuite(t *testing.T) {
	suite.Run(t, new(ResultStoreTestSuite))
}

func (suite *ResultStoreTestSuite) TestEmptyStore() {
	store := NewResultStore()

	_, err := store.Last()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (suite *ResultStoreTestSuite) TestPutAndLast() {
	store := NewResultStore()
	result := &types.BacktestResult{ID: "run-1"}

	store.Put(result)

	got, err := store.Last()
	suite.NoError(err)
	suite.Equal("run-1", got.ID)
}

func (suite *ResultStoreTestSuite) TestPutReplaces() {
	store := NewResultStore()
	store.Put(&types.BacktestResult{ID: "run-1"})
	store.Put(&types.BacktestResult{ID: "run-2"})

	got, err := store.Last()
	suite.NoError(err)
	suite.Equal("run-2", got.ID)
}

func (suite *ResultStoreTestSuite) TestConcurrentAccess() {
	store := NewResultStore()
	store.Put(&types.BacktestResult{ID: "seed"})

	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()

			store.Put(&types.BacktestResult{ID: "writer"})
		}()

		go func() {
			defer wg.Done()

			got, err := store.Last()
			suite.NoError(err)
			suite.NotNil(got)
		}()
	}

	wg.Wait()
}
