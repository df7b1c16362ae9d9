package seed

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"product-service/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductCreator is a mock implementation of ProductCreator.
type MockProductCreator struct {
	mock.Mock
}

func (m *MockProductCreator) Create(ctx context.Context, payload model.Payload) (*model.Product, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductCreator) List(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func payloadNamed(name string) model.Payload {
	raw, _ := json.Marshal(name)
	return model.Payload{"name": raw, "price": json.RawMessage(`1`)}
}

func staticLoader(payloads ...model.Payload) Loader {
	return &mockLoader{loadFunc: func(context.Context, string) ([]model.Payload, error) {
		return payloads, nil
	}}
}

func TestSeeder_Run_EmptyStore(t *testing.T) {
	products := new(MockProductCreator)
	products.On("List", mock.Anything).Return([]model.Product{}, nil)
	products.On("Create", mock.Anything, payloadNamed("A")).Return(&model.Product{ID: 1, Name: "A"}, nil)
	products.On("Create", mock.Anything, payloadNamed("")).
		Return(nil, model.NewValidationError([]model.Violation{{Field: "name", Reason: "must not be blank"}}))
	products.On("Create", mock.Anything, payloadNamed("B")).Return(&model.Product{ID: 2, Name: "B"}, nil)

	seeder := NewSeeder(staticLoader(payloadNamed("A"), payloadNamed(""), payloadNamed("B")), products, zerolog.Nop())
	result, err := seeder.Run(context.Background(), "seed.json")

	require.NoError(t, err)
	assert.Equal(t, Result{Loaded: 3, Created: 2, Failed: 1}, result)
	products.AssertExpectations(t)
}

func TestSeeder_Run_SkipsPopulatedStore(t *testing.T) {
	products := new(MockProductCreator)
	products.On("List", mock.Anything).Return([]model.Product{{ID: 1, Name: "existing"}}, nil)

	loader := &mockLoader{loadFunc: func(context.Context, string) ([]model.Payload, error) {
		t.Error("loader should not be called when the store is populated")
		return nil, nil
	}}

	result, err := NewSeeder(loader, products, zerolog.Nop()).Run(context.Background(), "seed.json")

	require.NoError(t, err)
	assert.True(t, result.Skipped)
	products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSeeder_Run_LoadFailure(t *testing.T) {
	products := new(MockProductCreator)
	products.On("List", mock.Anything).Return([]model.Product{}, nil)

	loader := &mockLoader{loadFunc: func(context.Context, string) ([]model.Payload, error) {
		return nil, errors.New("no such file")
	}}

	_, err := NewSeeder(loader, products, zerolog.Nop()).Run(context.Background(), "seed.json")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such file")
}

func TestSeeder_Run_ListFailure(t *testing.T) {
	products := new(MockProductCreator)
	products.On("List", mock.Anything).Return(nil, model.NewPersistenceError("list products", errors.New("db down")))

	_, err := NewSeeder(staticLoader(), products, zerolog.Nop()).Run(context.Background(), "seed.json")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list existing products")
}
