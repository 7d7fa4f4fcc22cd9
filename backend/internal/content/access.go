package content

import "coursehub/backend/internal/shared"

// Viewer is what the visibility rules know about the caller relative to one
// course.
type Viewer struct {
	IsOwnerOrAdmin bool
	IsEnrolled     bool
}

// IsModuleVisible decides whether a module is listed at all.
func IsModuleVisible(v Viewer, module shared.Module) bool {
	return v.IsOwnerOrAdmin || module.IsPublished
}

// CanAccessLecture decides whether a lecture's content may be shown, as
// opposed to only its title behind a lock.
func CanAccessLecture(v Viewer, module shared.Module, lecture shared.Lecture) bool {
	return v.IsOwnerOrAdmin || (v.IsEnrolled && module.IsPublished && lecture.IsPublished)
}

// LectureView is a lecture as returned to a particular viewer
type LectureView struct {
	shared.Lecture
	Locked bool `json:"locked"`
}

// ViewLecture applies CanAccessLecture, stripping content when locked
func ViewLecture(v Viewer, module shared.Module, lecture shared.Lecture) LectureView {
	lecture.Normalize()
	if CanAccessLecture(v, module, lecture) {
		return LectureView{Lecture: lecture}
	}
	lecture.Description = ""
	lecture.Resources = []shared.Resource{}
	lecture.ContentType, lecture.ContentURL, lecture.Duration = "", "", 0
	return LectureView{Lecture: lecture, Locked: true}
}
