// Package mocks provides mock implementations for testing the delivery
// ingestion service.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the repository and client interfaces in internal/core. The mocks are
// generated using go:generate directives.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockRepo := mocks.NewMockJobRepository(ctrl)
//	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
package mocks

// Generate mock for JobRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_repository_mock.go github.com/krishnx/vestigas/internal/core JobRepository

// Generate mock for DeliveryRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=delivery_repository_mock.go github.com/krishnx/vestigas/internal/core DeliveryRepository

// Generate mock for PartnerClient interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=partner_client_mock.go github.com/krishnx/vestigas/internal/core PartnerClient

// Generate mock for CacheRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=cache_repository_mock.go github.com/krishnx/vestigas/internal/core CacheRepository
