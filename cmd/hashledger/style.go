package main

import (
	"errors"
	"strconv"

	"github.com/pterm/pterm"

	"github.com/luca-patrignani/hashledger/ledger"
)

// renderChain draws the blocks as a table, one row per block.
func renderChain(blocks []ledger.Block) (string, error) {
	data := pterm.TableData{{"#", "Timestamp", "Payload", "Prev Hash", "Hash"}}
	for _, b := range blocks {
		data = append(data, []string{
			strconv.Itoa(b.Index),
			b.Timestamp,
			string(b.Payload),
			shortHash(b.PrevHash),
			shortHash(b.Hash),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
}

// getVerdictPanel summarizes the result of a verification in a titled box.
func getVerdictPanel(title string, err error) pterm.Panel {
	pbox := pterm.DefaultBox.WithHorizontalPadding(4).WithTopPadding(1).WithBottomPadding(1)
	if err == nil {
		return pterm.Panel{Data: pbox.WithTitle(pterm.LightGreen("|" + title + "|")).WithTitleTopCenter().Sprint("chain is valid")}
	}

	info := pterm.Sprintfln("chain is %s", pterm.LightRed("INVALID"))
	var verr *ledger.ValidationError
	if errors.As(err, &verr) {
		info += pterm.Sprintfln("block at position %d: %s", verr.Position, verr.Reason)
		info += pterm.Sprintfln("expected: %s", verr.Expected)
		info += pterm.Sprintf("got:      %s", verr.Got)
	} else {
		info += err.Error()
	}
	return pterm.Panel{Data: pbox.WithTitle(pterm.LightRed("|" + title + "|")).WithTitleTopCenter().Sprint(info)}
}

func renderPanels(panels ...pterm.Panel) (string, error) {
	return pterm.DefaultPanel.WithPanels([][]pterm.Panel{panels}).Srender()
}

// shortHash keeps hashes readable in the table; "0" and other short values pass through.
func shortHash(h string) string {
	if len(h) <= 16 {
		return h
	}
	return h[:8] + "…" + h[len(h)-8:]
}
