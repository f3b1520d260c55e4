package models

// ReviewItem pairs the immutable content of a learnable item with its learning state.
// State is nil when the item has never entered the learning subsystem.
type ReviewItem struct {
	ID           int64          `json:"id" db:"id"`
	CollectionID int64          `json:"collection_id" db:"collection_id"`
	Front        string         `json:"front" db:"front"`
	Back         string         `json:"back" db:"back"`
	State        *LearningState `json:"state,omitempty"`
}

// LearningStateOrDefault returns the item's state, or the default state if it has none.
func (i ReviewItem) LearningStateOrDefault() LearningState {
	if i.State == nil {
		return NewLearningState()
	}
	return *i.State
}

// ItemState is a learning state keyed by the item it belongs to, as handed to storage.
type ItemState struct {
	ItemID int64         `json:"item_id" db:"item_id"`
	State  LearningState `json:"state"`
}
