package leasehold

import "github.com/xraph/leasehold/id"

// ID is the primary identifier type for Leasehold accounts and events.
type ID = id.ID

// AccountID identifies a participant account.
type AccountID = id.AccountID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
