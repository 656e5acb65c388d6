package model

import (
	"sync"

	"github.com/YuminosukeSato/mtboost/pkg/errors"
)

// StateManager はモデルの学習状態をスレッドセーフに管理する。
// 学習時に観測した特徴量数・ターゲット数・サンプル数も保持する。
type StateManager struct {
	mu     sync.RWMutex
	fitted bool

	nFeatures int
	nTargets  int
	nSamples  int
}

// NewStateManager は未学習状態のStateManagerを作成する
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted はモデルが学習済みかどうかを返す
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fitted
}

// SetFitted は学習時の次元を記録して学習済みにする
func (s *StateManager) SetFitted(nFeatures, nTargets, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = true
	s.nFeatures = nFeatures
	s.nTargets = nTargets
	s.nSamples = nSamples
}

// Reset は未学習状態に戻す
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = false
	s.nFeatures = 0
	s.nTargets = 0
	s.nSamples = 0
}

// GetDimensions は学習時の特徴量数・ターゲット数・サンプル数を返す
func (s *StateManager) GetDimensions() (nFeatures, nTargets, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nFeatures, s.nTargets, s.nSamples
}

// RequireFitted は未学習ならNotFittedErrorを返す
func (s *StateManager) RequireFitted(modelName, method string) error {
	if !s.IsFitted() {
		return errors.NewNotFittedError(modelName, method)
	}
	return nil
}

// CheckFeatures は学習済みであることと、入力の特徴量数が学習時と一致することを確認する
func (s *StateManager) CheckFeatures(modelName, method string, nFeatures int) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.fitted {
		return errors.NewNotFittedError(modelName, method)
	}
	if nFeatures != s.nFeatures {
		return errors.NewDimensionError(modelName+"."+method, s.nFeatures, nFeatures, 1)
	}
	return nil
}
