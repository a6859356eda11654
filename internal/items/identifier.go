package items

import (
	"fmt"
	"strings"

	"github.com/helixmedical/devicecost-backend/pkg/db/models"
	pkgerrors "github.com/helixmedical/devicecost-backend/pkg/errors"
	"github.com/helixmedical/devicecost-backend/pkg/types"
)

// setIdentifier derives the item's unique identifier. Serial numbers are used
// verbatim; lot-numbered items get a base32 sequence suffix so multiple units
// from the same lot stay unique. An item with neither cannot be persisted.
func setIdentifier(item *models.Item, seq int64) error {
	if item.SerialNumber != nil && strings.TrimSpace(*item.SerialNumber) == "" {
		item.SerialNumber = nil
	}

	if item.SerialNumber == nil && (item.LotNumber == nil || *item.LotNumber == "") {
		return pkgerrors.New(pkgerrors.CodeValidation, "either serial number or lot number must be present")
	}

	if item.SerialNumber != nil {
		item.Identifier = *item.SerialNumber
		return nil
	}

	item.Seq = seq
	item.Identifier = fmt.Sprintf("%s-%s", *item.LotNumber, types.IntToBase32(seq, types.IdentifierSuffixWidth))
	return nil
}

// identityChanged reports whether serial or lot number differ between the
// persisted and incoming values; only then is the identifier rederived.
func identityChanged(persisted, incoming *models.Item) bool {
	return !stringPtrEqual(persisted.SerialNumber, incoming.SerialNumber) ||
		!stringPtrEqual(persisted.LotNumber, incoming.LotNumber)
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
