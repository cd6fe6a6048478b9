package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/blog-api/internal/models"
	"github.com/google/uuid"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	slugRegex     = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	usernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)
)

// Limits applied to request input. Lengths match the columns they are
// stored in.
const (
	MaxUsernameLength = 150
	MaxEmailLength    = 254
	MinPasswordLength = 8
	MaxTitleLength    = 200
	MaxSlugLength     = 200
	MaxImageLength    = 255
	MaxWebsiteLength  = 200
	MaxAvatarLength   = 255
	MinSearchLength   = 3
	DefaultPageSize   = 20
	MaxPageSize       = 100
)

// TaxonomyLimits are the name and slug column sizes of a taxonomy table
type TaxonomyLimits struct {
	Name int
	Slug int
}

var (
	CategoryLimits = TaxonomyLimits{Name: 100, Slug: 120}
	TagLimits      = TaxonomyLimits{Name: 50, Slug: 60}
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Summary joins errors into one human readable message
func Summary(errs []ValidationError) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Field + ": " + e.Message
	}
	return strings.Join(parts, "; ")
}

// ValidateSignup validates a signup request
func ValidateSignup(req *models.SignupRequest) []ValidationError {
	var errors []ValidationError

	// Validate username
	if req.Username == "" {
		errors = append(errors, ValidationError{Field: "username", Message: "username is required"})
	} else if utf8.RuneCountInString(req.Username) > MaxUsernameLength {
		errors = append(errors, ValidationError{Field: "username", Message: fmt.Sprintf("username exceeds %d characters", MaxUsernameLength)})
	} else if !usernameRegex.MatchString(req.Username) {
		errors = append(errors, ValidationError{Field: "username", Message: "username may contain only letters, digits and @/./+/-/_", Value: req.Username})
	}

	// Validate email
	if req.Email == "" {
		errors = append(errors, ValidationError{Field: "email", Message: "email is required"})
	} else if len(req.Email) > MaxEmailLength {
		errors = append(errors, ValidationError{Field: "email", Message: fmt.Sprintf("email exceeds %d characters", MaxEmailLength)})
	} else if !emailRegex.MatchString(req.Email) {
		errors = append(errors, ValidationError{Field: "email", Message: "invalid email format", Value: req.Email})
	}

	// Validate password
	if len(req.Password) < MinPasswordLength {
		errors = append(errors, ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", MinPasswordLength)})
	}

	return errors
}

// ValidatePostCreate validates a new post
func ValidatePostCreate(req *models.PostCreateRequest) []ValidationError {
	var errors []ValidationError

	errors = append(errors, validateTitle(req.Title)...)

	if strings.TrimSpace(req.Content) == "" {
		errors = append(errors, ValidationError{Field: "content", Message: "content is required"})
	}

	if req.Slug != "" {
		errors = append(errors, validateSlug("slug", req.Slug, MaxSlugLength)...)
	}

	errors = append(errors, validateLength("image", req.Image, MaxImageLength)...)
	errors = append(errors, validateRefs(req.CategoryID, req.TagIDs)...)
	return errors
}

// ValidatePostUpdate validates the fields present in an update
func ValidatePostUpdate(req *models.PostUpdateRequest) []ValidationError {
	var errors []ValidationError

	if req.Title != nil {
		errors = append(errors, validateTitle(*req.Title)...)
	}
	if req.Content != nil && strings.TrimSpace(*req.Content) == "" {
		errors = append(errors, ValidationError{Field: "content", Message: "content must not be empty"})
	}

	errors = append(errors, validateLength("image", req.Image, MaxImageLength)...)

	var tagIDs []string
	if req.TagIDs != nil {
		tagIDs = *req.TagIDs
	}
	errors = append(errors, validateRefs(req.CategoryID, tagIDs)...)
	return errors
}

func validateTitle(title string) []ValidationError {
	if strings.TrimSpace(title) == "" {
		return []ValidationError{{Field: "title", Message: "title is required"}}
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return []ValidationError{{Field: "title", Message: fmt.Sprintf("title exceeds %d characters", MaxTitleLength)}}
	}
	return nil
}

func validateSlug(field, slug string, max int) []ValidationError {
	if len(slug) > max {
		return []ValidationError{{Field: field, Message: fmt.Sprintf("slug exceeds %d characters", max)}}
	}
	if !slugRegex.MatchString(slug) {
		return []ValidationError{{Field: field, Message: "slug must be kebab-case (lowercase letters, numbers, hyphens)", Value: slug}}
	}
	return nil
}

// validateLength checks an optional string field against its column size
func validateLength(field string, value *string, max int) []ValidationError {
	if value != nil && utf8.RuneCountInString(*value) > max {
		return []ValidationError{{Field: field, Message: fmt.Sprintf("%s exceeds %d characters", field, max)}}
	}
	return nil
}

func validateRefs(categoryID *string, tagIDs []string) []ValidationError {
	var errors []ValidationError
	if categoryID != nil && *categoryID != "" && !IsUUID(*categoryID) {
		errors = append(errors, ValidationError{Field: "category_id", Message: "invalid UUID format", Value: *categoryID})
	}
	for _, id := range tagIDs {
		if !IsUUID(id) {
			errors = append(errors, ValidationError{Field: "tag_ids", Message: "invalid UUID format", Value: id})
		}
	}
	return errors
}

// ValidateComment validates a new comment
func ValidateComment(req *models.CommentCreateRequest) []ValidationError {
	var errors []ValidationError

	// Validate content
	if strings.TrimSpace(req.Content) == "" {
		errors = append(errors, ValidationError{Field: "content", Message: "content is required"})
	} else {
		wordCount := len(strings.Fields(req.Content))
		if wordCount > models.MaxCommentWords {
			errors = append(errors, ValidationError{
				Field:   "content",
				Message: fmt.Sprintf("content exceeds maximum of %d words (has %d)", models.MaxCommentWords, wordCount),
			})
		}
	}

	if req.ParentID != nil && !IsUUID(*req.ParentID) {
		errors = append(errors, ValidationError{Field: "parent_id", Message: "invalid UUID format", Value: *req.ParentID})
	}

	return errors
}

// ValidateTaxonomy validates a category or tag against the limits of
// the table it is stored in
func ValidateTaxonomy(req *models.TaxonomyCreateRequest, limits TaxonomyLimits) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(req.Name) == "" {
		errors = append(errors, ValidationError{Field: "name", Message: "name is required"})
	} else if utf8.RuneCountInString(req.Name) > limits.Name {
		errors = append(errors, ValidationError{Field: "name", Message: fmt.Sprintf("name exceeds %d characters", limits.Name)})
	}

	if req.Slug != "" {
		errors = append(errors, validateSlug("slug", req.Slug, limits.Slug)...)
	}

	return errors
}

// ValidateProfile validates a profile update. Website must be an
// absolute http(s) URL; an empty string clears it.
func ValidateProfile(req *models.ProfileUpdateRequest) []ValidationError {
	errors := validateLength("avatar", req.Avatar, MaxAvatarLength)

	if req.Website == nil || *req.Website == "" {
		return errors
	}
	if utf8.RuneCountInString(*req.Website) > MaxWebsiteLength {
		return append(errors, ValidationError{Field: "website", Message: fmt.Sprintf("website exceeds %d characters", MaxWebsiteLength)})
	}
	u, err := url.Parse(*req.Website)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errors = append(errors, ValidationError{Field: "website", Message: "website must be an http or https URL", Value: *req.Website})
	}
	return errors
}

// ValidateSearchQuery requires at least MinSearchLength characters
func ValidateSearchQuery(q string) []ValidationError {
	if utf8.RuneCountInString(strings.TrimSpace(q)) < MinSearchLength {
		return []ValidationError{{Field: "q", Message: fmt.Sprintf("query must be at least %d characters", MinSearchLength), Value: q}}
	}
	return nil
}

// ValidateTimeframe checks a trending window
func ValidateTimeframe(tf models.Timeframe) []ValidationError {
	if _, ok := models.TimeframeDurations[tf]; !ok {
		return []ValidationError{{Field: "timeframe", Message: "timeframe must be one of: 24h, 7d, 30d", Value: string(tf)}}
	}
	return nil
}

// ValidateReactionType checks a reaction type
func ValidateReactionType(rt models.ReactionType) []ValidationError {
	if !models.ValidReactionTypes[rt] {
		return []ValidationError{{Field: "reaction_type", Message: "reaction_type must be one of: like, dislike", Value: string(rt)}}
	}
	return nil
}

// ValidatePagination rejects negative offsets and non-positive limits,
// and returns the limit capped at MaxPageSize.
func ValidatePagination(offset, limit int) (int, []ValidationError) {
	var errors []ValidationError
	if offset < 0 {
		errors = append(errors, ValidationError{Field: "offset", Message: "offset must not be negative", Value: offset})
	}
	if limit < 1 {
		errors = append(errors, ValidationError{Field: "limit", Message: "limit must be positive", Value: limit})
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return limit, errors
}

// IsUUID checks if a string is a valid UUID
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
