// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService は投稿本文のHTMLコンテンツをサニタイズし、
// XSS攻撃などのセキュリティリスクから閲覧者を保護する。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// 安全なタグと属性のみを通過させる。
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService は投稿コンテンツのサニタイズ機能のインターフェースを定義する。
// 投稿の保存前に使用される。
type ContentSanitizerService interface {
	// SanitizeContent は投稿本文をサニタイズして安全なHTMLを返す。
	// 許可タグ（p, br, a, ul, ol, li, blockquote, pre, code, strong, em）のみを通過させ、
	// script, iframe, styleタグおよびon*イベント属性を除去する。
	// aタグにはtarget="_blank"とrel="noopener noreferrer"が自動付与される。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeContent(raw string) string

	// SanitizeTitle は投稿タイトルから全てのHTMLタグを除去する。
	// タイトルはプレーンテキストとして扱う。
	SanitizeTitle(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	contentPolicy *bluemonday.Policy
	titlePolicy   *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// 初期化時にbluemondayのカスタムポリシーを構築する。
// 本文用ポリシーの内容:
//   - 許可タグ: p, br, a, ul, ol, li, blockquote, pre, code, strong, em
//   - 禁止タグ: script, iframe, style および全てのon*イベント属性
//   - aタグ: target="_blank" と rel="noopener noreferrer" を自動付与
//
// タイトル用ポリシーは全タグを除去する。
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em",
	)

	// aタグの設定:
	// - href属性を許可、相対URLは不許可
	// - target="_blank" と rel="noreferrer noopener" を強制付与
	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AllowURLSchemes("https", "http")
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	return &contentSanitizer{
		contentPolicy: p,
		titlePolicy:   bluemonday.StrictPolicy(),
	}
}

// SanitizeContent は投稿本文をサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) SanitizeContent(raw string) string {
	return s.contentPolicy.Sanitize(raw)
}

// SanitizeTitle は投稿タイトルから全てのHTMLタグを除去する。
func (s *contentSanitizer) SanitizeTitle(raw string) string {
	return s.titlePolicy.Sanitize(raw)
}
