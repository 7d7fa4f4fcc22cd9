// ============================================================================
// backend/internal/shared/models.go
// Data models for MongoDB documents
// ============================================================================

package shared

import (
	"strings"
	"time"
)

// ============================================================================
// User Models
// ============================================================================

// Roles
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// Instructor verification states
const (
	VerificationPending     = "pending"
	VerificationUnderReview = "under_review"
	VerificationApproved    = "approved"
	VerificationRejected    = "rejected"
)

// User represents an account (student, instructor or admin)
type User struct {
	ID                string             `bson:"_id" json:"id"`
	FirstName         string             `bson:"first_name" json:"firstName"`
	LastName          string             `bson:"last_name" json:"lastName"`
	Email             string             `bson:"email" json:"email"`
	PasswordHash      string             `bson:"password_hash" json:"-"`
	Role              string             `bson:"role" json:"role"`
	Phone             string             `bson:"phone,omitempty" json:"phone,omitempty"`
	DateOfBirth       *time.Time         `bson:"date_of_birth,omitempty" json:"dateOfBirth,omitempty"`
	Address           string             `bson:"address,omitempty" json:"address,omitempty"`
	IsActive          bool               `bson:"is_active" json:"isActive"`
	IsApproved        bool               `bson:"is_approved" json:"isApproved"`
	LastLogin         *time.Time         `bson:"last_login,omitempty" json:"lastLogin,omitempty"`
	InstructorProfile *InstructorProfile `bson:"instructor_profile,omitempty" json:"instructorProfile,omitempty"`
	CreatedAt         time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updated_at" json:"updatedAt"`
}

// FullName joins first and last name
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// InstructorProfile holds the verification data of an instructor
type InstructorProfile struct {
	Qualification        string     `bson:"qualification,omitempty" json:"qualification,omitempty"`
	Experience           int        `bson:"experience" json:"experience"`
	Specialization       []string   `bson:"specialization,omitempty" json:"specialization,omitempty"`
	Bio                  string     `bson:"bio,omitempty" json:"bio,omitempty"`
	LinkedIn             string     `bson:"linked_in,omitempty" json:"linkedIn,omitempty"`
	Portfolio            string     `bson:"portfolio,omitempty" json:"portfolio,omitempty"`
	Documents            []Document `bson:"documents" json:"documents"`
	DocumentsUploaded    bool       `bson:"documents_uploaded" json:"documentsUploaded"`
	VerificationStatus   string     `bson:"verification_status" json:"verificationStatus"`
	VerificationComments string     `bson:"verification_comments,omitempty" json:"verificationComments,omitempty"`
}

// Document types accepted for instructor verification
const (
	DocDegreeCertificate   = "degree_certificate"
	DocTeachingCertificate = "teaching_certificate"
	DocIDProof             = "id_proof"
	DocExperienceLetter    = "experience_letter"
	DocOther               = "other"
)

// DocumentTypeLabel returns the human readable name of a document type
func DocumentTypeLabel(docType string) string {
	switch docType {
	case DocDegreeCertificate:
		return "Degree Certificate"
	case DocTeachingCertificate:
		return "Teaching Certificate"
	case DocIDProof:
		return "ID Proof"
	case DocExperienceLetter:
		return "Experience Letter"
	default:
		return "Document"
	}
}

// Document is an uploaded verification file (metadata only)
type Document struct {
	ID           string     `bson:"_id" json:"id"`
	Type         string     `bson:"type" json:"type"`
	OriginalName string     `bson:"original_name" json:"originalName"`
	Filename     string     `bson:"filename" json:"filename"`
	Path         string     `bson:"path" json:"path"`
	Mimetype     string     `bson:"mimetype" json:"mimetype"`
	Size         int64      `bson:"size" json:"size"`
	Verified     bool       `bson:"verified" json:"verified"`
	VerifiedBy   string     `bson:"verified_by,omitempty" json:"verifiedBy,omitempty"`
	VerifiedAt   *time.Time `bson:"verified_at,omitempty" json:"verifiedAt,omitempty"`
	Comments     string     `bson:"comments,omitempty" json:"comments,omitempty"`
	UploadedAt   time.Time  `bson:"uploaded_at" json:"uploadedAt"`
}

// Session represents an issued token (for server-side logout)
type Session struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"userId"`
	Token     string    `bson:"token" json:"-"`
	ExpiresAt time.Time `bson:"expires_at" json:"expiresAt"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// ============================================================================
// Course Models
// ============================================================================

// Course levels
const (
	LevelBeginner     = "Beginner"
	LevelIntermediate = "Intermediate"
	LevelAdvanced     = "Advanced"
)

// Course represents a course offering
type Course struct {
	ID                string     `bson:"_id" json:"id"`
	Title             string     `bson:"title" json:"title"`
	Description       string     `bson:"description" json:"description"`
	CourseCode        string     `bson:"course_code" json:"courseCode"`
	InstructorID      string     `bson:"instructor_id" json:"instructor"`
	Credits           int        `bson:"credits" json:"credits"`
	MaxStudents       int        `bson:"max_students" json:"maxStudents"`
	CurrentEnrollment int        `bson:"current_enrollment" json:"currentEnrollment"`
	Fees              float64    `bson:"fees" json:"fees"`
	Category          string     `bson:"category" json:"category"`
	Level             string     `bson:"level" json:"level"`
	Prerequisites     []string   `bson:"prerequisites" json:"prerequisites"`
	Materials         []Material `bson:"materials" json:"materials"`
	IsApproved        bool       `bson:"is_approved" json:"isApproved"`
	IsActive          bool       `bson:"is_active" json:"isActive"`
	ApprovedBy        string     `bson:"approved_by,omitempty" json:"approvedBy,omitempty"`
	ApprovedAt        *time.Time `bson:"approved_at,omitempty" json:"approvedAt,omitempty"`
	CreatedAt         time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt         time.Time  `bson:"updated_at" json:"updatedAt"`
}

// IsFull reports whether no seats are left
func (c *Course) IsFull() bool {
	return c.CurrentEnrollment >= c.MaxStudents
}

// Material types
const (
	MaterialPDF      = "pdf"
	MaterialVideo    = "video"
	MaterialLink     = "link"
	MaterialDocument = "document"
	MaterialNote     = "note"
)

// Material is a legacy flat content entry embedded in a course
type Material struct {
	ID          string    `bson:"_id" json:"id"`
	Title       string    `bson:"title" json:"title"`
	Type        string    `bson:"type" json:"type"`
	URL         string    `bson:"url,omitempty" json:"url,omitempty"`
	Filename    string    `bson:"filename,omitempty" json:"filename,omitempty"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	IsFree      bool      `bson:"is_free" json:"isFree"`
	UploadDate  time.Time `bson:"upload_date" json:"uploadDate"`
}

// ============================================================================
// Content Models
// ============================================================================

// Module is an ordered group of lectures within a course
type Module struct {
	ID          string    `bson:"_id" json:"id"`
	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	CourseID    string    `bson:"course_id" json:"courseId"`
	Order       int       `bson:"order" json:"order"`
	IsPublished bool      `bson:"is_published" json:"isPublished"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updatedAt"`
}

// Lecture content types
const (
	ContentVideo    = "video"
	ContentDocument = "document"
	ContentLink     = "link"
)

// Resource is a single piece of lecture content
type Resource struct {
	Type     string `bson:"type" json:"type"`
	URL      string `bson:"url" json:"url"`
	Title    string `bson:"title,omitempty" json:"title,omitempty"`
	Duration int    `bson:"duration,omitempty" json:"duration,omitempty"` // minutes
}

// Lecture is a unit of content within a module. Resources is the stored
// form; the single-content fields are only read from older documents and
// requests and are folded into Resources by Normalize.
type Lecture struct {
	ID          string     `bson:"_id" json:"id"`
	Title       string     `bson:"title" json:"title"`
	Description string     `bson:"description,omitempty" json:"description,omitempty"`
	ModuleID    string     `bson:"module_id" json:"moduleId"`
	Order       int        `bson:"order" json:"order"`
	IsPublished bool       `bson:"is_published" json:"isPublished"`
	Resources   []Resource `bson:"resources" json:"resources"`

	ContentType string `bson:"content_type,omitempty" json:"contentType,omitempty"`
	ContentURL  string `bson:"content_url,omitempty" json:"contentUrl,omitempty"`
	Duration    int    `bson:"duration,omitempty" json:"duration,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Normalize moves a legacy single-content descriptor into the resource list.
func (l *Lecture) Normalize() {
	if l.ContentURL != "" {
		l.Resources = append([]Resource{{
			Type:     l.ContentType,
			URL:      l.ContentURL,
			Duration: l.Duration,
		}}, l.Resources...)
	}
	l.ContentType, l.ContentURL, l.Duration = "", "", 0
	if l.Resources == nil {
		l.Resources = []Resource{}
	}
}

// HasContent reports whether the lecture carries at least one usable resource
func (l *Lecture) HasContent() bool {
	if l.ContentURL != "" {
		return true
	}
	for _, r := range l.Resources {
		if r.URL != "" {
			return true
		}
	}
	return false
}

// TotalDuration sums resource durations in minutes
func (l *Lecture) TotalDuration() int {
	total := l.Duration
	for _, r := range l.Resources {
		total += r.Duration
	}
	return total
}

// ============================================================================
// Enrollment Models
// ============================================================================

// Enrollment statuses
const (
	EnrollmentEnrolled = "enrolled"
	EnrollmentDropped  = "dropped"
)

// Enrollment represents a student's enrollment in a course
type Enrollment struct {
	ID             string     `bson:"_id" json:"id"`
	StudentID      string     `bson:"student_id" json:"student"`
	CourseID       string     `bson:"course_id" json:"course"`
	Status         string     `bson:"status" json:"status"`
	EnrollmentDate time.Time  `bson:"enrollment_date" json:"enrollmentDate"`
	DroppedAt      *time.Time `bson:"dropped_at,omitempty" json:"droppedAt,omitempty"`
}

// ============================================================================
// Notification Models
// ============================================================================

// Notification types
const (
	NotifyAssignment     = "assignment"
	NotifyAssignmentDue  = "assignment_due"
	NotifyGrade          = "grade"
	NotifyEnrollment     = "enrollment"
	NotifyPayment        = "payment"
	NotifySystem         = "system"
	NotifyReminder       = "reminder"
	NotifyAnnouncement   = "announcement"
	NotifyDocVerified    = "doc_verified"
	NotifyDocRejected    = "doc_rejected"
	NotifyCourseApproved = "course_approved"
	NotifyCourseRejected = "course_rejected"
	NotifyUserApproved   = "user_approved"
)

// Notification is an inbox message for a single recipient
type Notification struct {
	ID             string    `bson:"_id" json:"id"`
	RecipientID    string    `bson:"recipient_id" json:"recipient"`
	Title          string    `bson:"title" json:"title"`
	Message        string    `bson:"message" json:"message"`
	Type           string    `bson:"type" json:"type"`
	TargetID       string    `bson:"target_id,omitempty" json:"targetId,omitempty"`
	TargetURL      string    `bson:"target_url,omitempty" json:"targetUrl,omitempty"`
	ActionRequired bool      `bson:"action_required" json:"actionRequired"`
	IsRead         bool      `bson:"is_read" json:"isRead"`
	IsDeleted      bool      `bson:"is_deleted" json:"-"`
	CreatedAt      time.Time `bson:"created_at" json:"createdAt"`
}

// ============================================================================
// Grading Models
// ============================================================================

// Assignment is a gradable task within a course
type Assignment struct {
	ID          string     `bson:"_id" json:"id"`
	CourseID    string     `bson:"course_id" json:"courseId"`
	Title       string     `bson:"title" json:"title"`
	Description string     `bson:"description,omitempty" json:"description,omitempty"`
	TotalPoints float64    `bson:"total_points" json:"totalPoints"`
	DueDate     *time.Time `bson:"due_date,omitempty" json:"dueDate,omitempty"`
	IsPublished bool       `bson:"is_published" json:"isPublished"`
	CreatedAt   time.Time  `bson:"created_at" json:"createdAt"`
}

// SubmissionGrade is the score given to a single submission
type SubmissionGrade struct {
	Points     float64   `bson:"points" json:"points"`
	Percentage float64   `bson:"percentage" json:"percentage"`
	Feedback   string    `bson:"feedback,omitempty" json:"feedback,omitempty"`
	GradedBy   string    `bson:"graded_by" json:"gradedBy"`
	GradedAt   time.Time `bson:"graded_at" json:"gradedAt"`
}

// Submission is a student's answer to an assignment
type Submission struct {
	ID           string           `bson:"_id" json:"id"`
	AssignmentID string           `bson:"assignment_id" json:"assignmentId"`
	StudentID    string           `bson:"student_id" json:"studentId"`
	Content      string           `bson:"content,omitempty" json:"content,omitempty"`
	SubmittedAt  time.Time        `bson:"submitted_at" json:"submittedAt"`
	Grade        *SubmissionGrade `bson:"grade,omitempty" json:"grade,omitempty"`
}

// Grade is a posted course grade for a student
type Grade struct {
	ID          string    `bson:"_id" json:"id"`
	CourseID    string    `bson:"course_id" json:"courseId"`
	StudentID   string    `bson:"student_id" json:"studentId"`
	Percentage  float64   `bson:"percentage" json:"percentage"`
	LetterGrade string    `bson:"letter_grade" json:"letterGrade"`
	PostedBy    string    `bson:"posted_by" json:"postedBy"`
	PostedAt    time.Time `bson:"posted_at" json:"postedAt"`
}

// LetterGrade maps a percentage to a letter
func LetterGrade(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A"
	case percentage >= 80:
		return "B"
	case percentage >= 70:
		return "C"
	case percentage >= 60:
		return "D"
	default:
		return "F"
	}
}

// ============================================================================
// Viewer
// ============================================================================

// Actor is the authenticated caller of a service operation
type Actor struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// IsAdmin reports whether the actor is an administrator
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// Owns reports whether the actor is the given owner or an admin
func (a Actor) Owns(ownerID string) bool {
	return a.IsAdmin() || (a.UserID != "" && a.UserID == ownerID)
}
