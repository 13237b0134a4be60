package api

import (
	"github.com/soltip/soltip/balance"
	"github.com/soltip/soltip/common"
	"github.com/soltip/soltip/history"
	"github.com/soltip/soltip/tip"
)

type WalletView struct {
	Available []string `json:"available"`
	Selected  string   `json:"selected"`
	Connected bool     `json:"connected"`
	PublicKey string   `json:"public_key,omitempty"`
	Endpoint  string   `json:"endpoint"`
}

type BalanceView struct {
	balance.View
	Display string `json:"display"`
}

type HistoryLine struct {
	history.Record
	Display string `json:"display"`
}

// StateView is the JSON snapshot pushed to the page and served by /api/state.
type StateView struct {
	Wallet     WalletView    `json:"wallet"`
	Creator    string        `json:"creator"`
	Amount     string        `json:"amount"`
	Banner     tip.Banner    `json:"banner"`
	Submitting bool          `json:"submitting"`
	Balance    BalanceView   `json:"balance"`
	History    []HistoryLine `json:"history"`
	TipTotal   string        `json:"tip_total"`
	Notice     string        `json:"notice,omitempty"`
}

// EmptyHistory is the placeholder shown before the first tip.
func (v StateView) EmptyHistory() string {
	return history.EmptyMessage
}

// ShortKey abbreviates the connected address for the wallet button.
func (v StateView) ShortKey() string {
	return common.ShortAddress(v.Wallet.PublicKey)
}

func snapshot(s *Session) StateView {
	st := s.Controller.State()

	v := StateView{
		Wallet: WalletView{
			Available: s.Wallet.Wallets(),
			Selected:  s.Wallet.Selected(),
			Endpoint:  s.Wallet.Endpoint(),
		},
		Creator:    st.Creator,
		Amount:     st.Amount,
		Banner:     st.Banner,
		Submitting: st.Submitting,
		History:    make([]HistoryLine, 0, len(st.History)),
	}
	if pub, ok := s.Wallet.PublicKey(); ok {
		v.Wallet.Connected = true
		v.Wallet.PublicKey = pub.String()
	}

	bv := s.Balance.View()
	v.Balance = BalanceView{View: bv, Display: bv.Display()}

	for _, r := range st.History {
		v.History = append(v.History, HistoryLine{Record: r, Display: history.FormatRecord(r)})
	}
	v.TipTotal = s.Controller.History().Total().String()
	return v
}
