package redis

import "github.com/iho/palletledger/internal/usecase"

var (
	_ usecase.BalanceCache     = (*BalanceCache)(nil)
	_ usecase.IdempotencyStore = (*IdempotencyStore)(nil)
	_ usecase.PartnerLocker    = (*PartnerLocker)(nil)
)
