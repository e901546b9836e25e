package postgres

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/eroudini/AiMerchant-sub000/internal/domain"
)

// psql renders $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// scopePredicate builds the AND-combined equality predicates of a generation
// scope. The same predicate is used by the inventory read, the forecast read
// and the draft delete so all three always see the same rows.
func scopePredicate(scope domain.Scope, alias string) sq.And {
	prefix := normalizeAlias(alias)

	pred := sq.And{sq.Eq{prefix + "account_id": scope.AccountID}}
	if scope.Country != "" {
		pred = append(pred, sq.Eq{prefix + "country": scope.Country})
	}
	if codes := dedupeCodes(scope.ProductCodes); len(codes) > 0 {
		pred = append(pred, sq.Eq{prefix + "product_code": codes})
	}
	return pred
}

// recommendationFilterPredicate builds the listing filters.
func recommendationFilterPredicate(accountID string, filter domain.RecommendationFilter) sq.And {
	pred := sq.And{sq.Eq{"account_id": accountID}}
	if filter.Status != "" {
		pred = append(pred, sq.Eq{"status": string(filter.Status)})
	}
	if filter.Type != "" {
		pred = append(pred, sq.Eq{"type": string(filter.Type)})
	}
	if filter.Country != "" {
		pred = append(pred, sq.Eq{"country": filter.Country})
	}
	return pred
}

func normalizeAlias(alias string) string {
	if alias == "" {
		return ""
	}
	if !strings.HasSuffix(alias, ".") {
		return alias + "."
	}
	return alias
}

func dedupeCodes(codes []string) []string {
	if len(codes) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}
