package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/projectbuzz/platform/internal/domain"
	"github.com/projectbuzz/platform/internal/repository"
)

// ProjectHandler handles project listing endpoints. Listings are thin here:
// the catalog service owns descriptions, files and search, this surface only
// maintains what settlement needs.
type ProjectHandler struct {
	pool     *pgxpool.Pool
	projects repository.ProjectRepository
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(pool *pgxpool.Pool, projects repository.ProjectRepository) *ProjectHandler {
	return &ProjectHandler{pool: pool, projects: projects}
}

type createProjectRequest struct {
	Title string `json:"title"`
	Price int64  `json:"price"`
}

// Create handles POST /projects.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	sellerID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	var req createProjectRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	if req.Title == "" {
		RespondError(w, domain.ErrValidation("title is required"))
		return
	}
	if err := domain.ValidatePositiveAmount(req.Price); err != nil {
		RespondError(w, err)
		return
	}

	now := time.Now()
	project := &domain.Project{
		ID:        uuid.New(),
		SellerID:  sellerID,
		Title:     req.Title,
		Price:     req.Price,
		Status:    domain.ProjectPublished,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.projects.Create(r.Context(), h.pool, project); err != nil {
		RespondError(w, domain.ErrInternal("create project", err))
		return
	}
	RespondJSON(w, http.StatusCreated, project)
}

// Get handles GET /projects/{id}.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid project id"))
		return
	}

	project, err := h.projects.FindByID(r.Context(), h.pool, projectID)
	if err != nil {
		RespondError(w, domain.ErrInternal("find project", err))
		return
	}
	if project == nil {
		RespondError(w, domain.ErrNotFound("project", projectID.String()))
		return
	}
	RespondJSON(w, http.StatusOK, project)
}
