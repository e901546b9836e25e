package postgres

import (
	"testing"

	"github.com/eroudini/AiMerchant-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopePredicate(t *testing.T) {
	tests := []struct {
		name     string
		scope    domain.Scope
		alias    string
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:     "account only",
			scope:    domain.Scope{AccountID: "acc-1"},
			wantSQL:  "(account_id = ?)",
			wantArgs: []interface{}{"acc-1"},
		},
		{
			name:     "country and products",
			scope:    domain.Scope{AccountID: "acc-1", Country: "FR", ProductCodes: []string{"SKU2", "SKU1", "SKU2", " "}},
			alias:    "i",
			wantSQL:  "(i.account_id = ? AND i.country = ? AND i.product_code IN (?,?))",
			wantArgs: []interface{}{"acc-1", "FR", "SKU2", "SKU1"},
		},
		{
			name:     "blank product list is ignored",
			scope:    domain.Scope{AccountID: "acc-1", ProductCodes: []string{""}},
			wantSQL:  "(account_id = ?)",
			wantArgs: []interface{}{"acc-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := scopePredicate(tt.scope, tt.alias).ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestRecommendationFilterPredicate(t *testing.T) {
	sql, args, err := recommendationFilterPredicate("acc-1", domain.RecommendationFilter{
		Status:  domain.StatusDraft,
		Type:    domain.TypePurchaseOrder,
		Country: "DE",
	}).ToSql()

	require.NoError(t, err)
	assert.Equal(t, "(account_id = ? AND status = ? AND type = ? AND country = ?)", sql)
	assert.Equal(t, []interface{}{"acc-1", "draft", "po", "DE"}, args)
}
