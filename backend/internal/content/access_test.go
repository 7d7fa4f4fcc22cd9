package content

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"coursehub/backend/internal/shared"
)

func TestCanAccessLecture(t *testing.T) {
	// every combination of the five inputs
	for _, owner := range []bool{false, true} {
		for _, enrolled := range []bool{false, true} {
			for _, modPub := range []bool{false, true} {
				for _, lecPub := range []bool{false, true} {
					v := Viewer{IsOwnerOrAdmin: owner, IsEnrolled: enrolled}
					m := shared.Module{IsPublished: modPub}
					l := shared.Lecture{IsPublished: lecPub}

					want := owner || (enrolled && modPub && lecPub)
					assert.Equal(t, want, CanAccessLecture(v, m, l),
						"owner=%v enrolled=%v module=%v lecture=%v", owner, enrolled, modPub, lecPub)

					if owner {
						assert.True(t, CanAccessLecture(v, m, l))
						assert.True(t, IsModuleVisible(v, m))
					}
				}
			}
		}
	}
}

func TestIsModuleVisible(t *testing.T) {
	tests := []struct {
		name    string
		viewer  Viewer
		module  shared.Module
		visible bool
	}{
		{"draft hidden from student", Viewer{IsEnrolled: true}, shared.Module{}, false},
		{"published listed for anyone", Viewer{}, shared.Module{IsPublished: true}, true},
		{"draft visible to owner", Viewer{IsOwnerOrAdmin: true}, shared.Module{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.visible, IsModuleVisible(tt.viewer, tt.module))
		})
	}
}

func TestViewLectureLocksUnpublishedInPublishedModule(t *testing.T) {
	module := shared.Module{IsPublished: true}
	lecture := shared.Lecture{
		Title:       "Goroutines",
		Description: "secret notes",
		Resources:   []shared.Resource{{Type: shared.ContentVideo, URL: "https://v/1"}},
	}

	view := ViewLecture(Viewer{IsEnrolled: true}, module, lecture)
	assert.True(t, view.Locked)
	assert.Equal(t, "Goroutines", view.Title)
	assert.Empty(t, view.Resources)
	assert.Empty(t, view.Description)

	lecture.IsPublished = true
	view = ViewLecture(Viewer{IsEnrolled: true}, module, lecture)
	assert.False(t, view.Locked)
	assert.Len(t, view.Resources, 1)
}
