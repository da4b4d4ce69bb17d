package chain

import "strings"

type errKind int

const (
	// errTransient: network hiccup or mempool congestion; retry in place.
	errTransient errKind = iota
	// errPermanent: the transaction can never land as built; abort.
	errPermanent
	// errNonceStale: our local nonce fell behind the chain; resync required.
	errNonceStale
	// errAlreadyKnown: the node has the exact transaction; keep waiting.
	errAlreadyKnown
)

var permanentFragments = []string{
	"insufficient funds",
	"execution reverted",
	"invalid sender",
	"exceeds block gas limit",
	"intrinsic gas too low",
	"max fee per gas less than block base fee",
}

// classify maps node error strings onto retry behavior. JSON-RPC errors carry
// no stable codes across clients, so string matching is the practical option.
func classify(err error) errKind {
	if err == nil {
		return errTransient
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "nonce too low"):
		return errNonceStale
	case strings.Contains(msg, "already known"), strings.Contains(msg, "alreadyknown"),
		strings.Contains(msg, "known transaction"):
		return errAlreadyKnown
	}
	for _, fragment := range permanentFragments {
		if strings.Contains(msg, fragment) {
			return errPermanent
		}
	}
	return errTransient
}
