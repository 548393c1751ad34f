package mongodb

import (
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories"
	pkgmongo "github.com/ArowuTest/lottery-ticketing-backend/pkg/mongodb"
)

// NewStore wires the MongoDB repositories. The deployment must be a replica set
// for transactions to work.
func NewStore(client *pkgmongo.Client, dbName string) *repositories.Store {
	db := client.Database(dbName)
	return &repositories.Store{
		Rounds:   NewRoundRepository(db),
		Tickets:  NewTicketRepository(db),
		Orders:   NewOrderRepository(db),
		Payments: NewPaymentRepository(db),
		Tx:       NewTxManager(client.Mongo(), db),
		Close:    client.Disconnect,
	}
}
