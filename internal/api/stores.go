package api

import (
	"context"

	"github.com/conambiente/conambiente-backend/internal/domain"
)

// The handlers depend on these instead of *store.PostgresStore so they can be
// tested against in-memory fakes.

type NewsStore interface {
	CreateNews(ctx context.Context, req domain.CreateNewsRequest) (*domain.News, error)
	GetNews(ctx context.Context, id string) (*domain.News, error)
	ListNews(ctx context.Context) ([]domain.News, error)
	UpdateNews(ctx context.Context, id string, req domain.UpdateNewsRequest) (*domain.News, error)
	DeleteNews(ctx context.Context, id string) (bool, error)
}

type ProjectStore interface {
	CreateProject(ctx context.Context, req domain.CreateProjectRequest) (*domain.Project, error)
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	ListProjects(ctx context.Context, departamento string) ([]domain.Project, error)
	UpdateProject(ctx context.Context, id string, req domain.UpdateProjectRequest) (*domain.Project, error)
	DeleteProject(ctx context.Context, id string) (bool, error)
}

type SubscriberStore interface {
	Subscribe(ctx context.Context, email string) (*domain.Subscriber, domain.SubscribeResult, error)
	Unsubscribe(ctx context.Context, email string) (bool, error)
}

// Announcer starts the newsletter for a newly created news item without
// blocking the caller.
type Announcer interface {
	Announce(news domain.News)
}

// Pinger is a dependency checked by the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}
