package service

// Rent describes how much native value an account must hold to stay on the ledger
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionYears      uint64
}

// accountStorageOverhead is charged on top of the data length of every account
const accountStorageOverhead = 128

// DefaultRent matches the ledger's default rent parameters
var DefaultRent = Rent{
	LamportsPerByteYear: 3480,
	ExemptionYears:      2,
}

// MinimumBalance returns the rent-exempt minimum for an account with dataLen bytes
func (r Rent) MinimumBalance(dataLen int) uint64 {
	return (accountStorageOverhead + uint64(dataLen)) * r.LamportsPerByteYear * r.ExemptionYears
}

// IsExempt reports whether lamports cover the rent-exempt minimum
func (r Rent) IsExempt(lamports uint64, dataLen int) bool {
	return lamports >= r.MinimumBalance(dataLen)
}
