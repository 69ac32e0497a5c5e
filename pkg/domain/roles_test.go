package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "engageflow/pkg/domain-errors"
)

func TestFirmRole_SignoffMapping(t *testing.T) {
	cases := map[FirmRole]SignoffRole{
		FirmRoleStaff:      SignoffRolePreparer,
		FirmRoleSenior:     SignoffRoleReviewer,
		FirmRoleSupervisor: SignoffRoleSeniorReviewer,
		FirmRoleManager:    SignoffRoleManager,
		FirmRolePartner:    SignoffRolePartner,
	}
	for firm, want := range cases {
		got, ok := firm.SignoffRole()
		require.True(t, ok, firm)
		assert.Equal(t, want, got, firm)
	}

	_, ok := FirmRole("intern").SignoffRole()
	assert.False(t, ok)
}

func TestFirmRole_Capabilities(t *testing.T) {
	assert.False(t, FirmRoleStaff.CanReview())
	assert.True(t, FirmRoleSenior.CanReview())
	assert.True(t, FirmRolePartner.CanReview())

	assert.False(t, FirmRoleSupervisor.HasOverride())
	assert.True(t, FirmRoleManager.HasOverride())
	assert.True(t, FirmRolePartner.HasOverride())
}

func TestParseFirmRole(t *testing.T) {
	r, err := ParseFirmRole("supervisor")
	require.NoError(t, err)
	assert.Equal(t, FirmRoleSupervisor, r)

	_, err = ParseFirmRole("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = ParseFirmRole("admin")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestRiskLevel_RequiredSignoffRoles(t *testing.T) {
	assert.Equal(t, []SignoffRole{SignoffRolePreparer, SignoffRoleReviewer}, RiskLow.RequiredSignoffRoles())
	assert.Equal(t, []SignoffRole{SignoffRolePreparer, SignoffRoleReviewer}, RiskMedium.RequiredSignoffRoles())
	assert.Equal(t, []SignoffRole{SignoffRolePreparer, SignoffRoleReviewer, SignoffRoleManager}, RiskHigh.RequiredSignoffRoles())
	assert.Equal(t, SignoffRoleOrder, RiskSignificant.RequiredSignoffRoles())
	assert.Nil(t, RiskLevel("extreme").RequiredSignoffRoles())

	t.Run("returned slice is a copy", func(t *testing.T) {
		roles := RiskHigh.RequiredSignoffRoles()
		roles[0] = SignoffRolePartner
		assert.Equal(t, SignoffRolePreparer, RiskHigh.RequiredSignoffRoles()[0])
	})
}
