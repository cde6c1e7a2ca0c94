package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deathnote/deathnote/internal/api/validation"
)

func TestValidateCreateRequest_Valid(t *testing.T) {
	errs := validation.ValidateCreateRequest(validation.CreateVictimRequest{
		Name:     "John",
		LastName: "Doe",
	})

	assert.Empty(t, errs)
}

func TestValidateCreateRequest_OptionalFields(t *testing.T) {
	errs := validation.ValidateCreateRequest(validation.CreateVictimRequest{
		Name:      "Jane",
		LastName:  "Smith",
		DeathType: "Poison",
		Images:    []string{"https://example.com/1.png"},
	})

	assert.Empty(t, errs)
}

func TestValidateCreateRequest_MissingNames(t *testing.T) {
	errs := validation.ValidateCreateRequest(validation.CreateVictimRequest{})

	require.Len(t, errs, 2)
	assert.Equal(t, "name", errs[0].Field)
	assert.Equal(t, "name is required", errs[0].Message)
	assert.Equal(t, "lastName", errs[1].Field)
}

func TestValidateCreateRequest_ShortNames(t *testing.T) {
	errs := validation.ValidateCreateRequest(validation.CreateVictimRequest{
		Name:     "J",
		LastName: "D",
	})

	require.Len(t, errs, 2)
	assert.Equal(t, "name must be at least 2 characters", errs[0].Message)
}

func TestValidateCreateRequest_EmptyImageURL(t *testing.T) {
	errs := validation.ValidateCreateRequest(validation.CreateVictimRequest{
		Name:     "John",
		LastName: "Doe",
		Images:   []string{""},
	})

	require.Len(t, errs, 1)
	assert.Equal(t, "images", errs[0].Field)
}

func TestValidateDeathTypeRequest(t *testing.T) {
	assert.Empty(t, validation.ValidateDeathTypeRequest(validation.DeathTypeRequest{DeathType: "Poison"}))

	errs := validation.ValidateDeathTypeRequest(validation.DeathTypeRequest{})
	require.Len(t, errs, 1)
	assert.Equal(t, "deathType is required", errs[0].Message)
}

func TestValidateDetailsRequest(t *testing.T) {
	assert.Empty(t, validation.ValidateDetailsRequest(validation.DetailsRequest{Details: "slow-acting toxin"}))

	errs := validation.ValidateDetailsRequest(validation.DetailsRequest{})
	require.Len(t, errs, 1)
	assert.Equal(t, "details", errs[0].Field)
}
