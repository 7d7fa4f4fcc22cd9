package shared

import (
	"math"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestNewPage(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int
		want        Page
	}{
		{"defaults", 0, 0, Page{Page: 1, Limit: 10}},
		{"clamps limit", 2, 500, Page{Page: 2, Limit: 100}},
		{"negative page", -3, 5, Page{Page: 1, Limit: 5}},
		{"huge page is capped", 100000000000000001, 100, Page{Page: math.MaxInt / 100, Limit: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewPage(tt.page, tt.limit)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got.Skip(), 0)
		})
	}
}

func TestPageSkipNeverNegative(t *testing.T) {
	p := NewPage(math.MaxInt, 100)
	start, end := p.Slice(25)
	assert.Equal(t, 25, start)
	assert.Equal(t, 25, end)

	overflowing := Page{Page: math.MaxInt, Limit: 100}
	assert.Equal(t, math.MaxInt, overflowing.Skip())
	start, end = overflowing.Slice(25)
	assert.Equal(t, 25, start)
	assert.Equal(t, 25, end)

	assert.Equal(t, 0, Page{}.Skip())
}

func TestPageSliceAndPaginate(t *testing.T) {
	p := NewPage(3, 4)
	start, end := p.Slice(10)
	assert.Equal(t, 8, start)
	assert.Equal(t, 10, end)

	start, end = NewPage(5, 4).Slice(10)
	assert.Equal(t, 10, start)
	assert.Equal(t, 10, end)

	pg := p.Paginate(10)
	assert.Equal(t, 3, pg.Pages)
	assert.False(t, pg.HasNext)
	assert.True(t, pg.HasPrev)
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
	}{
		{ValidationError("bad"), codes.InvalidArgument},
		{NotFoundError("missing"), codes.NotFound},
		{AccessError("nope"), codes.PermissionDenied},
		{ConflictError("dup"), codes.AlreadyExists},
		{CapacityError("full"), codes.ResourceExhausted},
		{PolicyError("pending"), codes.FailedPrecondition},
		{UnauthenticatedError("who"), codes.Unauthenticated},
		{InternalError("boom", http.ErrAbortHandler), codes.Internal},
	}
	for _, tt := range tests {
		st, ok := status.FromError(tt.err)
		require.True(t, ok)
		assert.Equal(t, tt.code, st.Code(), tt.err.Error())
	}

	assert.True(t, IsKind(CapacityError("full"), KindCapacity))
	assert.Equal(t, KindInternal, KindOf(http.ErrAbortHandler))
}

func TestValidate(t *testing.T) {
	type input struct {
		Title   string `json:"title" validate:"notblank,max=10"`
		Credits int    `json:"credits" validate:"min=1,max=10"`
	}

	assert.NoError(t, Validate(input{Title: "Go", Credits: 3}))

	err := Validate(input{Title: "   ", Credits: 11})
	require.Error(t, err)
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, KindValidation, se.Kind)
	require.Len(t, se.Fields, 2)
	assert.Equal(t, "title", se.Fields[0].Field)
	assert.Equal(t, "credits", se.Fields[1].Field)
}

func TestLectureNormalize(t *testing.T) {
	l := &Lecture{ContentType: ContentVideo, ContentURL: "https://v/1", Duration: 12}
	require.True(t, l.HasContent())
	l.Normalize()

	require.Len(t, l.Resources, 1)
	assert.Equal(t, Resource{Type: ContentVideo, URL: "https://v/1", Duration: 12}, l.Resources[0])
	assert.Empty(t, l.ContentURL)
	assert.Equal(t, 12, l.TotalDuration())

	empty := &Lecture{}
	assert.False(t, empty.HasContent())
	empty.Normalize()
	assert.NotNil(t, empty.Resources)
}

func TestLetterGrade(t *testing.T) {
	assert.Equal(t, "A", LetterGrade(95))
	assert.Equal(t, "B", LetterGrade(80))
	assert.Equal(t, "D", LetterGrade(60))
	assert.Equal(t, "F", LetterGrade(12.5))
}
