package kernel

// AccountID is the primary key shared by an Account record and its provider
// identity. It is assigned by the Identity Provider.
type AccountID string

func NewAccountID(id string) AccountID { return AccountID(id) }
func (a AccountID) String() string     { return string(a) }
func (a AccountID) IsEmpty() bool      { return string(a) == "" }

// PhoneNumber is the key of an OTP challenge and a unique Account attribute.
type PhoneNumber string

func (p PhoneNumber) String() string { return string(p) }
func (p PhoneNumber) IsEmpty() bool  { return string(p) == "" }
