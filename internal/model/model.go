// Package model содержит доменные сущности сервиса drop4life.
package model

import "time"

// BloodType описывает группу крови по системе ABO/Rh.
type BloodType string

const (
	BloodTypeAPos  BloodType = "A+"
	BloodTypeANeg  BloodType = "A-"
	BloodTypeBPos  BloodType = "B+"
	BloodTypeBNeg  BloodType = "B-"
	BloodTypeOPos  BloodType = "O+"
	BloodTypeONeg  BloodType = "O-"
	BloodTypeABPos BloodType = "AB+"
	BloodTypeABNeg BloodType = "AB-"
)

// DefaultBloodType используется при зачислении донации, если у донора не указана группа крови.
const DefaultBloodType = BloodTypeAPos

// BloodTypes перечисляет все известные группы крови в порядке инициализации склада больницы.
var BloodTypes = []BloodType{
	BloodTypeAPos, BloodTypeANeg,
	BloodTypeBPos, BloodTypeBNeg,
	BloodTypeOPos, BloodTypeONeg,
	BloodTypeABPos, BloodTypeABNeg,
}

// Donor представляет зарегистрированного донора.
type Donor struct {
	ID        int64
	Name      string
	Age       int
	BloodType BloodType
	Contact   string
	Location  string
}

// StockBloodType возвращает группу крови, на которую зачисляется донация.
func (d Donor) StockBloodType() BloodType {
	if d.BloodType == "" {
		return DefaultBloodType
	}
	return d.BloodType
}

// Hospital представляет больницу.
type Hospital struct {
	ID       int64
	Name     string
	Location string
}

// Seeker представляет человека, которому требуется кровь.
type Seeker struct {
	ID              int64
	Name            string
	BloodTypeNeeded BloodType
	Contact         string
	Location        string
}

// StockEntry содержит количество единиц крови одной группы в больнице.
type StockEntry struct {
	HospitalID int64
	BloodType  BloodType
	Units      int
}

// HospitalStock описывает результат поиска больниц с запасом нужной группы крови.
type HospitalStock struct {
	HospitalName string
	Location     string
	Units        int
}

// DonationRecord описывает факт завершённой донации.
type DonationRecord struct {
	ID           int64
	DonorID      int64
	HospitalID   int64
	HospitalName string
	Details      string
	DonatedAt    time.Time
}

// DonorRequestStatus описывает статус запроса больницы к донору.
type DonorRequestStatus string

const (
	DonorRequestPending  DonorRequestStatus = "pending"
	DonorRequestAccepted DonorRequestStatus = "accepted"
	DonorRequestDeclined DonorRequestStatus = "declined"
)

// DonorRequest описывает запрос больницы к конкретному донору.
type DonorRequest struct {
	ID           int64
	HospitalID   int64
	HospitalName string
	DonorID      int64
	Details      string
	RequestedAt  *time.Time
	Status       DonorRequestStatus
}

// SeekerRequestPending записывается в статус при создании запроса. Остальные статусы
// выставляет больница, для сервиса они непрозрачны.
const SeekerRequestPending = "Pending"

// SeekerRequest описывает запрос нуждающегося к больнице.
type SeekerRequest struct {
	ID              int64
	SeekerID        int64
	SeekerName      string
	HospitalID      int64
	HospitalName    string
	BloodTypeNeeded BloodType
	Details         string
	Status          string
	RequestedAt     time.Time
}
