package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProjectStatus gates purchasability.
type ProjectStatus string

const (
	ProjectPublished ProjectStatus = "published"
	ProjectDraft     ProjectStatus = "draft"
	ProjectArchived  ProjectStatus = "archived"
)

// Project is the listing a buyer purchases. The route handlers and file
// storage around listings live outside this core; the settlement pipeline
// only needs price, seller, purchasability, and buyer membership.
type Project struct {
	ID        uuid.UUID     `json:"id"`
	SellerID  uuid.UUID     `json:"seller_id"`
	Title     string        `json:"title"`
	Price     int64         `json:"price"`
	Status    ProjectStatus `json:"status"`
	SalesCount int64        `json:"sales_count"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Purchasable reports whether new orders may be created for the project.
func (p *Project) Purchasable() bool {
	return p.Status == ProjectPublished
}
