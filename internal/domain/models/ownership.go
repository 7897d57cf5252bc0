package models

// Relation: поле сущности, определяющее владельца с правом записи.
// Порядок констант задает приоритет при проверке прав.
type Relation int

const (
	RelationNone   Relation = iota
	RelationFarmer          // Product.farmer
	RelationBuyer           // Order.buyer
	RelationUser            // Review.user
	RelationSelf            // сам User
)

func (r Relation) String() string {
	switch r {
	case RelationFarmer:
		return "farmer"
	case RelationBuyer:
		return "buyer"
	case RelationUser:
		return "user"
	case RelationSelf:
		return "self"
	default:
		return "none"
	}
}

// Ownership статически объявленное отношение владения записью
type Ownership struct {
	Relation Relation
	OwnerID  int64
}

// Owned реализуется всеми сущностями, к которым применяется политика доступа
type Owned interface {
	Ownership() Ownership
}
