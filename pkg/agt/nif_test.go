package agt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scripttb/720CRM-sub000/pkg/agt"
)

func TestNormalizeNIF(t *testing.T) {
	assert.Equal(t, "5417002311", agt.NormalizeNIF("541 7 00-2311"))
	assert.Equal(t, "004567890LA042", agt.NormalizeNIF("004567890la042"))
}

func TestValidateNIF(t *testing.T) {
	valid := []string{"5417002311", "004567890LA042", "999999999", "541.700.2311"}
	for _, n := range valid {
		assert.NoError(t, agt.ValidateNIF(n), n)
	}
	invalid := []string{"", "12345", "ABCDEFGHIJ", "54170023110"}
	for _, n := range invalid {
		assert.Error(t, agt.ValidateNIF(n), n)
	}
}

func TestCustomerTaxID_ConsumidorFinal(t *testing.T) {
	assert.Equal(t, agt.ConsumerFinalNIF, agt.CustomerTaxID("  "))
	assert.Equal(t, "5417002311", agt.CustomerTaxID("5417002311"))
}
