package patients

import (
	"slices"
	"time"
)

// Patient es la persona cuyo tratamiento se registra. Pertenece a su
// creador y puede compartirse con otras cuentas.
//
// SharedWith no se serializa con el registro: vive en el conjunto
// patient_shared_with:{id} y se hidrata al leer, para que share/unshare
// sean mutaciones atómicas de conjunto y no read-modify-write del registro.
type Patient struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	CreatorUserID string    `json:"creator_user_id"`
	SharedWith    []string  `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

// IsCreator indica si userID creó el paciente.
func (p Patient) IsCreator(userID string) bool {
	return userID != "" && p.CreatorUserID == userID
}

// AccessSet devuelve {creator} ∪ sharedWith, creador primero.
func (p Patient) AccessSet() []string {
	out := make([]string, 0, len(p.SharedWith)+1)
	out = append(out, p.CreatorUserID)
	for _, u := range p.SharedWith {
		if u != p.CreatorUserID && !slices.Contains(out, u) {
			out = append(out, u)
		}
	}
	return out
}
