// Package security はアプリケーションのセキュリティ機能を提供する。
//
// MarkupSanitizerService はAIが生成したインサイト本文をサニタイズし、
// XSS攻撃などのセキュリティリスクからユーザーを保護する。
// モデルの出力はMarkdownを想定しているが、埋め込まれたHTMLは信頼できない
// 入力として扱い、bluemondayの許可リストベースのポリシーで
// 安全なタグのみを通過させる。
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// MarkupSanitizerService はインサイト本文のサニタイズ機能のインターフェースを定義する。
// インサイトの保存前に使用される。
type MarkupSanitizerService interface {
	// Sanitize は本文をサニタイズして安全なテキストを返す。
	// Markdownのレンダリング結果に現れうるタグ（見出し・段落・リスト・
	// 強調・コード・引用・リンク）のみを通過させ、
	// script, iframe, style, imgタグおよびon*イベント属性を除去する。
	// aタグにはtarget="_blank"とrel="noopener noreferrer"が自動付与される。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// markupSanitizer はMarkupSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type markupSanitizer struct {
	policy *bluemonday.Policy
}

// NewMarkupSanitizer はMarkupSanitizerServiceの新しいインスタンスを生成する。
// 初期化時にbluemondayのカスタムポリシーを構築する。
// ポリシーの内容:
//   - 許可タグ: h2, h3, h4, p, br, ul, ol, li, blockquote, pre, code, strong, em, a
//   - 禁止タグ: script, iframe, style, img および全てのon*イベント属性
//   - aタグ: href許可、target="_blank" と rel="noreferrer noopener" を自動付与
func NewMarkupSanitizer() *markupSanitizer {
	p := bluemonday.NewPolicy()

	// Markdownレンダリングで現れる範囲のタグのみを許可する。
	// script, iframe, style, img等は許可リストに含めないことで自動的に除去され、
	// on*イベント属性はbluemondayのデフォルトで許可されないため除去される。
	p.AllowElements(
		"h2", "h3", "h4",
		"p", "br", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em",
	)

	// aタグの設定:
	// - href属性を許可、相対URLは不許可
	// - target="_blank"を全リンクに強制付与
	// - rel="noreferrer noopener"を強制付与
	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AllowURLSchemes("https")
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	return &markupSanitizer{
		policy: p,
	}
}

// Sanitize は本文をサニタイズして安全なテキストを返す。
func (s *markupSanitizer) Sanitize(raw string) string {
	return s.policy.Sanitize(raw)
}
