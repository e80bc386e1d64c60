package dance

import (
	"github.com/evomimic/holonengine/internal/holon"
	"github.com/evomimic/holonengine/internal/txn"
)

// printDatabase implements the Standalone "print_database" diagnostic dance
// from SPEC_FULL.md's supplemented features (original_source
// test_print_database.rs): it reports the active space's holon id
// alongside this transaction's nursery and transient pool sizes.
func (d *Dispatcher) printDatabase(ctx *txn.TransactionContext, req *DanceRequest) (*DanceResponse, error) {
	spaceID, err := d.space.GetSpaceHolonId()
	if err != nil {
		return nil, err
	}

	pm := holon.PropertyMap{
		"SpaceHolonId":  holon.NewStringValue(spaceID.String()),
		"NurserySize":   holon.NewIntegerValue(int64(ctx.Nursery().Count())),
		"TransientSize": holon.NewIntegerValue(int64(ctx.TransientManager().Count())),
	}

	return &DanceResponse{
		Description: "active space snapshot",
		Body:        ResponseBody{Kind: ResponseParameterValues, ParameterValues: pm},
	}, nil
}
