// Package crash реализует краш-игру с серверным исходом.
//
// Раунд начинается на сервере: точка краша разыгрывается в момент
// ставки и клиенту не сообщается. Кэшаут оценивается по серверному
// времени, присланные клиентом множители никогда не принимаются
// на веру. models.go описывает раунд и результат.
package crash

import "time"

// Round — активный раунд краша. Живёт в Redis до кэшаута,
// краша или истечения TTL.
type Round struct {
	ID         string    `json:"id"`
	UserID     int64     `json:"user_id"`
	Bet        int64     `json:"bet"`         // наноTON
	CrashPoint float64   `json:"crash_point"` // клиенту не отдаётся
	StartedAt  time.Time `json:"started_at"`
}

// Result — итог раунда.
type Result struct {
	CashedOut  bool    // успел ли игрок забрать до краша
	Multiplier float64 // множитель кэшаута (если успел)
	CrashPoint float64 // где разбился раунд
	Bet        int64   // наноTON
	Payout     int64   // зачислено, наноTON (0 при проигрыше)
	Profit     int64   // Payout - Bet
	NewBalance int64   // наноTON
}
