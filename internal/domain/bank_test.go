package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuestionBank(t *testing.T) {
	tests := []struct {
		name        string
		bankName    string
		fingerprint string
		expectError error
	}{
		{
			name:        "valid_bank",
			bankName:    "Chapter 1 vocab",
			fingerprint: "abc123",
			expectError: nil,
		},
		{
			name:        "empty_name_rejected",
			bankName:    "",
			fingerprint: "abc123",
			expectError: ErrEmptyBankName,
		},
		{
			name:        "empty_fingerprint_rejected",
			bankName:    "Chapter 1 vocab",
			fingerprint: "",
			expectError: ErrEmptyBankFingerprint,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bank, err := NewQuestionBank(tt.bankName, "doc.txt", "", tt.fingerprint)

			if tt.expectError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectError)
				assert.Nil(t, bank)
				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, bank.ID)
			assert.Equal(t, BankStatusPending, bank.Status)
			assert.Equal(t, tt.bankName, bank.Name)
			assert.False(t, bank.CreatedAt.IsZero())
			assert.False(t, bank.UpdatedAt.IsZero())
		})
	}
}

func TestQuestionBankUpdateStatus(t *testing.T) {
	bank, err := NewQuestionBank("test", "doc.txt", "", "fp")
	require.NoError(t, err)

	err = bank.UpdateStatus(BankStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, BankStatusProcessing, bank.Status)

	err = bank.UpdateStatus(BankStatus("bogus"))
	assert.ErrorIs(t, err, ErrInvalidBankStatus)
	assert.Equal(t, BankStatusProcessing, bank.Status)
}
