package discovery

import "strings"

// stateVersion 续传令牌版本，结构变更时递增
const stateVersion = 1

// ConversationManager 负责对话续传令牌的校验与推进。
// 服务端不保存任何会话，全部状态由令牌承载。
type ConversationManager struct {
	maxRounds int
}

// NewConversationManager 创建对话管理器，maxRounds 非法时取 3
func NewConversationManager(maxRounds int) *ConversationManager {
	if maxRounds < 1 {
		maxRounds = 3
	}
	return &ConversationManager{maxRounds: maxRounds}
}

// MaxRounds 返回最大对话轮数
func (m *ConversationManager) MaxRounds() int {
	return m.maxRounds
}

// Resume 基于上一轮令牌推进对话状态。
//
// 令牌缺失时开启新对话；令牌存在但结构非法时同样重置为新对话，
// 并通过第二个返回值告知调用方（重置不致命，调用方负责记录）。
// refinement 仅在尚未到达最大轮数时被接受并使轮次 +1。
func (m *ConversationManager) Resume(state *ConversationState, refinement, query string) (ConversationState, bool) {
	refinement = strings.TrimSpace(refinement)

	if state == nil {
		return m.fresh(query), false
	}
	if !m.valid(state) {
		return m.fresh(query), true
	}

	next := ConversationState{
		Version:       stateVersion,
		OriginalQuery: state.OriginalQuery,
		Refinements:   append([]string(nil), state.Refinements...),
		Round:         state.Round,
	}
	if refinement != "" && next.Round < m.maxRounds {
		next.Refinements = append(next.Refinements, refinement)
		next.Round++
	}
	return next, false
}

// EffectiveQuery 拼接原始查询与全部精化回答，作为后续阶段的统一输入
func (m *ConversationManager) EffectiveQuery(state *ConversationState) string {
	parts := make([]string, 0, 1+len(state.Refinements))
	parts = append(parts, strings.TrimSpace(state.OriginalQuery))
	for _, r := range state.Refinements {
		if r = strings.TrimSpace(r); r != "" {
			parts = append(parts, r)
		}
	}
	return strings.Join(parts, " ")
}

// CanRefine 判断该状态是否还允许继续精化
func (m *ConversationManager) CanRefine(state *ConversationState) bool {
	return state.Round < m.maxRounds
}

func (m *ConversationManager) fresh(query string) ConversationState {
	return ConversationState{
		Version:       stateVersion,
		OriginalQuery: strings.TrimSpace(query),
		Round:         1,
	}
}

// valid 结构化校验：版本、轮数区间、精化数与轮数的一致性
func (m *ConversationManager) valid(state *ConversationState) bool {
	if state.Version != stateVersion {
		return false
	}
	if strings.TrimSpace(state.OriginalQuery) == "" {
		return false
	}
	if state.Round < 1 || state.Round > m.maxRounds {
		return false
	}
	if len(state.Refinements) != state.Round-1 {
		return false
	}
	for _, r := range state.Refinements {
		if strings.TrimSpace(r) == "" {
			return false
		}
	}
	return true
}
