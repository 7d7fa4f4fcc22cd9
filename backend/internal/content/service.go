// Package content manages the Course → Module → Lecture hierarchy: CRUD,
// ordering, publish state, and what each viewer may see of it.
package content

import (
	"context"
	"errors"
	"time"

	"coursehub/backend/internal/logger"
	"coursehub/backend/internal/shared"
	"coursehub/backend/internal/store"
)

// Service implements module and lecture operations
type Service struct {
	store store.Store
	log   *logger.Logger
}

// NewService creates a content service
func NewService(st store.Store, log *logger.Logger) *Service {
	return &Service{store: st, log: log.With("service", "ContentService")}
}

// ============================================================================
// Inputs
// ============================================================================

type CreateModuleInput struct {
	CourseID    string `json:"courseId" validate:"notblank"`
	Title       string `json:"title" validate:"notblank,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Order       *int   `json:"order" validate:"omitempty,min=1"`
	IsPublished bool   `json:"isPublished"`
}

type UpdateModuleInput struct {
	Title       *string `json:"title" validate:"omitempty,notblank,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Order       *int    `json:"order" validate:"omitempty,min=1"`
	IsPublished *bool   `json:"isPublished"`
}

type ResourceInput struct {
	Type     string `json:"type" validate:"oneof=video document link"`
	URL      string `json:"url" validate:"notblank,max=2048"`
	Title    string `json:"title" validate:"max=200"`
	Duration int    `json:"duration" validate:"min=0"`
}

// ContentInput carries lecture content in either accepted shape: a resource
// list, or a single contentType/contentUrl/duration descriptor.
type ContentInput struct {
	Resources   []ResourceInput `json:"resources" validate:"omitempty,dive"`
	ContentType string          `json:"contentType" validate:"omitempty,oneof=video document link"`
	ContentURL  string          `json:"contentUrl" validate:"max=2048"`
	Duration    int             `json:"duration" validate:"min=0"`
}

func (c ContentInput) present() bool {
	return c.ContentURL != "" || len(c.Resources) > 0
}

func (c ContentInput) apply(l *shared.Lecture) {
	l.Resources = make([]shared.Resource, 0, len(c.Resources))
	for _, r := range c.Resources {
		l.Resources = append(l.Resources, shared.Resource{Type: r.Type, URL: r.URL, Title: r.Title, Duration: r.Duration})
	}
	if c.ContentURL != "" {
		contentType := c.ContentType
		if contentType == "" {
			contentType = shared.ContentLink
		}
		l.ContentType, l.ContentURL, l.Duration = contentType, c.ContentURL, c.Duration
	}
	l.Normalize()
}

type CreateLectureInput struct {
	ModuleID    string `json:"moduleId" validate:"notblank"`
	Title       string `json:"title" validate:"notblank,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Order       int    `json:"order" validate:"min=1"`
	IsPublished bool   `json:"isPublished"`
	ContentInput
}

type UpdateLectureInput struct {
	Title       *string `json:"title" validate:"omitempty,notblank,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Order       *int    `json:"order" validate:"omitempty,min=1"`
	IsPublished *bool   `json:"isPublished"`
	ContentInput
}

// ============================================================================
// Modules
// ============================================================================

// CreateModule adds a module to a course the actor owns. Order defaults to 1
// and is never renumbered or checked for duplicates.
func (s *Service) CreateModule(ctx context.Context, actor shared.Actor, in CreateModuleInput) (*shared.Module, error) {
	if err := shared.Validate(in); err != nil {
		return nil, err
	}

	course, err := s.store.Courses().Get(ctx, in.CourseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, shared.ValidationError("Course not found")
		}
		return nil, shared.InternalError("failed to load course", err)
	}
	if !actor.Owns(course.InstructorID) {
		return nil, shared.AccessError("Only the course instructor can add modules")
	}

	order := 1
	if in.Order != nil {
		order = *in.Order
	}
	now := time.Now().UTC()
	m := &shared.Module{
		ID:          shared.GenerateID(),
		Title:       in.Title,
		Description: in.Description,
		CourseID:    course.ID,
		Order:       order,
		IsPublished: in.IsPublished,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Modules().Create(ctx, m); err != nil {
		return nil, shared.InternalError("failed to create module", err)
	}

	s.log.Info("module created", "module_id", m.ID, "course_id", course.ID, "actor", actor.UserID)
	return m, nil
}

// GetModule returns a module if the viewer may see it
func (s *Service) GetModule(ctx context.Context, actor shared.Actor, id string) (*shared.Module, error) {
	m, err := s.module(ctx, id)
	if err != nil {
		return nil, err
	}
	v, err := s.viewer(ctx, actor, m.CourseID)
	if err != nil {
		return nil, err
	}
	if !IsModuleVisible(v, *m) {
		return nil, shared.NotFoundError("Module not found")
	}
	return m, nil
}

// UpdateModule merges the given fields; last writer wins
func (s *Service) UpdateModule(ctx context.Context, actor shared.Actor, id string, in UpdateModuleInput) (*shared.Module, error) {
	if err := shared.Validate(in); err != nil {
		return nil, err
	}
	m, err := s.ownedModule(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		m.Title = *in.Title
	}
	if in.Description != nil {
		m.Description = *in.Description
	}
	if in.Order != nil {
		m.Order = *in.Order
	}
	if in.IsPublished != nil {
		m.IsPublished = *in.IsPublished
	}
	m.UpdatedAt = time.Now().UTC()

	if err := s.store.Modules().Update(ctx, m); err != nil {
		return nil, s.writeError(err, "Module not found", "failed to update module")
	}
	return m, nil
}

// DeleteModule removes a module and all its lectures in one transaction
func (s *Service) DeleteModule(ctx context.Context, actor shared.Actor, id string) (int64, error) {
	if _, err := s.ownedModule(ctx, actor, id); err != nil {
		return 0, err
	}

	var removed int64
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		n, err := s.store.Lectures().DeleteByModule(ctx, id)
		if err != nil {
			return err
		}
		removed = n
		return s.store.Modules().Delete(ctx, id)
	})
	if err != nil {
		return 0, s.writeError(err, "Module not found", "failed to delete module")
	}

	s.log.Info("module deleted", "module_id", id, "lectures_removed", removed, "actor", actor.UserID)
	return removed, nil
}

// SetModulePublished sets the publish flag. A nil value flips it.
func (s *Service) SetModulePublished(ctx context.Context, actor shared.Actor, id string, published *bool) (*shared.Module, error) {
	m, err := s.ownedModule(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	next := !m.IsPublished
	if published != nil {
		next = *published
	}
	if m.IsPublished == next {
		return m, nil
	}

	m.IsPublished = next
	m.UpdatedAt = time.Now().UTC()
	if err := s.store.Modules().Update(ctx, m); err != nil {
		return nil, s.writeError(err, "Module not found", "failed to update module")
	}
	return m, nil
}

// ListModules pages modules by order. Viewers who do not own the course
// only see published modules.
func (s *Service) ListModules(ctx context.Context, actor shared.Actor, f store.ModuleFilter, p shared.Page) ([]shared.Module, int64, error) {
	owner := actor.IsAdmin()
	if !owner && f.CourseID != "" {
		course, err := s.store.Courses().Get(ctx, f.CourseID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, 0, shared.InternalError("failed to load course", err)
		}
		owner = course != nil && actor.Owns(course.InstructorID)
	}

	if !owner {
		if f.IsPublished != nil && !*f.IsPublished {
			return []shared.Module{}, 0, nil
		}
		f.IsPublished = store.Bool(true)
	}

	modules, total, err := s.store.Modules().List(ctx, f, p)
	if err != nil {
		return nil, 0, shared.InternalError("failed to list modules", err)
	}
	return modules, total, nil
}

// ============================================================================
// Lectures
// ============================================================================

// CreateLecture adds a lecture with at least one piece of content
func (s *Service) CreateLecture(ctx context.Context, actor shared.Actor, in CreateLectureInput) (*shared.Lecture, error) {
	if err := shared.Validate(in); err != nil {
		return nil, err
	}
	if !in.ContentInput.present() {
		return nil, shared.ValidationFields([]shared.FieldError{{Field: "resources", Message: "lecture content is required"}})
	}

	m, err := s.module(ctx, in.ModuleID)
	if err != nil {
		if shared.IsKind(err, shared.KindNotFound) {
			return nil, shared.ValidationError("Module not found")
		}
		return nil, err
	}
	if err := s.authorize(ctx, actor, m.CourseID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	l := &shared.Lecture{
		ID:          shared.GenerateID(),
		Title:       in.Title,
		Description: in.Description,
		ModuleID:    m.ID,
		Order:       in.Order,
		IsPublished: in.IsPublished,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	in.ContentInput.apply(l)

	if err := s.store.Lectures().Create(ctx, l); err != nil {
		return nil, shared.InternalError("failed to create lecture", err)
	}

	s.log.Info("lecture created", "lecture_id", l.ID, "module_id", m.ID, "actor", actor.UserID)
	return l, nil
}

// GetLecture returns a lecture as the viewer may see it
func (s *Service) GetLecture(ctx context.Context, actor shared.Actor, id string) (*LectureView, error) {
	l, err := s.lecture(ctx, id)
	if err != nil {
		return nil, err
	}
	m, err := s.module(ctx, l.ModuleID)
	if err != nil {
		if shared.IsKind(err, shared.KindNotFound) {
			return nil, shared.NotFoundError("Lecture not found")
		}
		return nil, err
	}
	v, err := s.viewer(ctx, actor, m.CourseID)
	if err != nil {
		return nil, err
	}
	if !IsModuleVisible(v, *m) {
		return nil, shared.NotFoundError("Lecture not found")
	}

	view := ViewLecture(v, *m, *l)
	return &view, nil
}

// UpdateLecture merges the given fields. New content replaces the old.
func (s *Service) UpdateLecture(ctx context.Context, actor shared.Actor, id string, in UpdateLectureInput) (*shared.Lecture, error) {
	if err := shared.Validate(in); err != nil {
		return nil, err
	}
	l, err := s.ownedLecture(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		l.Title = *in.Title
	}
	if in.Description != nil {
		l.Description = *in.Description
	}
	if in.Order != nil {
		l.Order = *in.Order
	}
	if in.IsPublished != nil {
		l.IsPublished = *in.IsPublished
	}
	if in.ContentInput.present() {
		in.ContentInput.apply(l)
	}
	l.UpdatedAt = time.Now().UTC()

	if err := s.store.Lectures().Update(ctx, l); err != nil {
		return nil, s.writeError(err, "Lecture not found", "failed to update lecture")
	}
	return l, nil
}

// DeleteLecture removes one lecture
func (s *Service) DeleteLecture(ctx context.Context, actor shared.Actor, id string) error {
	if _, err := s.ownedLecture(ctx, actor, id); err != nil {
		return err
	}
	if err := s.store.Lectures().Delete(ctx, id); err != nil {
		return s.writeError(err, "Lecture not found", "failed to delete lecture")
	}
	s.log.Info("lecture deleted", "lecture_id", id, "actor", actor.UserID)
	return nil
}

// SetLecturePublished sets the publish flag. A nil value flips it.
func (s *Service) SetLecturePublished(ctx context.Context, actor shared.Actor, id string, published *bool) (*shared.Lecture, error) {
	l, err := s.ownedLecture(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	next := !l.IsPublished
	if published != nil {
		next = *published
	}
	if l.IsPublished == next {
		return l, nil
	}

	l.IsPublished = next
	l.UpdatedAt = time.Now().UTC()
	if err := s.store.Lectures().Update(ctx, l); err != nil {
		return nil, s.writeError(err, "Lecture not found", "failed to update lecture")
	}
	return l, nil
}

// ListLectures pages the lectures of a module by order. Non-admins must name
// the module; locked lectures come back without content.
func (s *Service) ListLectures(ctx context.Context, actor shared.Actor, f store.LectureFilter, p shared.Page) ([]LectureView, int64, error) {
	if f.ModuleID == "" {
		if !actor.IsAdmin() {
			return nil, 0, shared.ValidationError("moduleId is required")
		}
		lectures, total, err := s.store.Lectures().List(ctx, f, p)
		if err != nil {
			return nil, 0, shared.InternalError("failed to list lectures", err)
		}
		views := make([]LectureView, 0, len(lectures))
		for _, l := range lectures {
			l.Normalize()
			views = append(views, LectureView{Lecture: l})
		}
		return views, total, nil
	}

	m, err := s.module(ctx, f.ModuleID)
	if err != nil {
		return nil, 0, err
	}
	v, err := s.viewer(ctx, actor, m.CourseID)
	if err != nil {
		return nil, 0, err
	}
	if !IsModuleVisible(v, *m) {
		return nil, 0, shared.NotFoundError("Module not found")
	}

	lectures, total, err := s.store.Lectures().List(ctx, f, p)
	if err != nil {
		return nil, 0, shared.InternalError("failed to list lectures", err)
	}
	views := make([]LectureView, 0, len(lectures))
	for _, l := range lectures {
		views = append(views, ViewLecture(v, *m, l))
	}
	return views, total, nil
}

// ============================================================================
// Outline
// ============================================================================

// ModuleOutline is a module with its lectures as seen by one viewer
type ModuleOutline struct {
	shared.Module
	Lectures []LectureView `json:"lectures"`
}

// Outline is the full content tree of a course for one viewer
type Outline struct {
	CourseID   string          `json:"courseId"`
	IsOwner    bool            `json:"isOwner"`
	IsEnrolled bool            `json:"isEnrolled"`
	Modules    []ModuleOutline `json:"modules"`
}

// CourseOutline builds the course tree, leaving out hidden modules and
// locking lectures the viewer cannot open.
func (s *Service) CourseOutline(ctx context.Context, actor shared.Actor, courseID string) (*Outline, error) {
	v, err := s.viewer(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}

	modules, _, err := s.store.Modules().List(ctx, store.ModuleFilter{CourseID: courseID}, shared.Page{})
	if err != nil {
		return nil, shared.InternalError("failed to list modules", err)
	}

	visible := make([]shared.Module, 0, len(modules))
	ids := make([]string, 0, len(modules))
	for _, m := range modules {
		if IsModuleVisible(v, m) {
			visible = append(visible, m)
			ids = append(ids, m.ID)
		}
	}

	byModule := map[string][]shared.Lecture{}
	if len(ids) > 0 {
		lectures, _, err := s.store.Lectures().List(ctx, store.LectureFilter{ModuleIDs: ids}, shared.Page{})
		if err != nil {
			return nil, shared.InternalError("failed to list lectures", err)
		}
		for _, l := range lectures {
			byModule[l.ModuleID] = append(byModule[l.ModuleID], l)
		}
	}

	out := &Outline{
		CourseID:   courseID,
		IsOwner:    v.IsOwnerOrAdmin,
		IsEnrolled: v.IsEnrolled,
		Modules:    make([]ModuleOutline, 0, len(visible)),
	}
	for _, m := range visible {
		mo := ModuleOutline{Module: m, Lectures: make([]LectureView, 0, len(byModule[m.ID]))}
		for _, l := range byModule[m.ID] {
			mo.Lectures = append(mo.Lectures, ViewLecture(v, m, l))
		}
		out.Modules = append(out.Modules, mo)
	}
	return out, nil
}

// ============================================================================
// Helpers
// ============================================================================

// viewer resolves ownership and enrollment of actor for a course
func (s *Service) viewer(ctx context.Context, actor shared.Actor, courseID string) (Viewer, error) {
	course, err := s.store.Courses().Get(ctx, courseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Viewer{}, shared.NotFoundError("Course not found")
		}
		return Viewer{}, shared.InternalError("failed to load course", err)
	}

	if actor.Owns(course.InstructorID) {
		return Viewer{IsOwnerOrAdmin: true}, nil
	}
	if actor.UserID == "" {
		return Viewer{}, nil
	}

	_, err = s.store.Enrollments().FindActive(ctx, actor.UserID, courseID)
	switch {
	case err == nil:
		return Viewer{IsEnrolled: true}, nil
	case errors.Is(err, store.ErrNotFound):
		return Viewer{}, nil
	default:
		return Viewer{}, shared.InternalError("failed to load enrollment", err)
	}
}

func (s *Service) authorize(ctx context.Context, actor shared.Actor, courseID string) error {
	if actor.IsAdmin() {
		return nil
	}
	course, err := s.store.Courses().Get(ctx, courseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return shared.NotFoundError("Course not found")
		}
		return shared.InternalError("failed to load course", err)
	}
	if !actor.Owns(course.InstructorID) {
		return shared.AccessError("Access denied")
	}
	return nil
}

func (s *Service) module(ctx context.Context, id string) (*shared.Module, error) {
	m, err := s.store.Modules().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, shared.NotFoundError("Module not found")
		}
		return nil, shared.InternalError("failed to load module", err)
	}
	return m, nil
}

func (s *Service) lecture(ctx context.Context, id string) (*shared.Lecture, error) {
	l, err := s.store.Lectures().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, shared.NotFoundError("Lecture not found")
		}
		return nil, shared.InternalError("failed to load lecture", err)
	}
	l.Normalize()
	return l, nil
}

func (s *Service) ownedModule(ctx context.Context, actor shared.Actor, id string) (*shared.Module, error) {
	m, err := s.module(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, m.CourseID); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) ownedLecture(ctx context.Context, actor shared.Actor, id string) (*shared.Lecture, error) {
	l, err := s.lecture(ctx, id)
	if err != nil {
		return nil, err
	}
	m, err := s.module(ctx, l.ModuleID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, m.CourseID); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) writeError(err error, notFound, internal string) error {
	if errors.Is(err, store.ErrNotFound) {
		return shared.NotFoundError("%s", notFound)
	}
	return shared.InternalError(internal, err)
}
