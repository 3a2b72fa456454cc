// Package model holds the domain types shared by the catalog, table reader,
// signer and response packages: recipients, shares/schemas/tables,
// pagination, version selectors, capabilities and table snapshots.
package model

// RecipientId identifies the authenticated caller driving entitlement
// filtering in the catalog. The zero value is Anonymous.
type RecipientId struct {
	known bool
	id    string
}

// Anonymous is the recipient identity for unauthenticated or public access.
var Anonymous = RecipientId{}

// KnownRecipient builds a RecipientId for an authenticated recipient.
func KnownRecipient(id string) RecipientId {
	return RecipientId{known: true, id: id}
}

// IsAnonymous reports whether this identity is the anonymous recipient.
func (r RecipientId) IsAnonymous() bool {
	return !r.known
}

// ID returns the recipient's opaque identifier, or "" for Anonymous.
func (r RecipientId) ID() string {
	return r.id
}

// String renders the identity the way entitlement predicates key on it:
// "ANONYMOUS" or the literal id.
func (r RecipientId) String() string {
	if !r.known {
		return "ANONYMOUS"
	}
	return r.id
}
