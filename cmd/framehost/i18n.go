// Package main provides localization for the framehost CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Input":     "入力",
		"Stream":    "ストリーム",
		"Execution": "実行",
		"Debug":     "デバッグ",
		"Logging":   "ログ",

		// Commands
		"Run video frames through processing plugins":     "映像フレームを処理プラグインに通す",
		"Process one or more streams":                     "1つ以上のストリームを処理",
		"List registered plugins and their pixel formats": "登録済みプラグインと対応ピクセルフォーマットを一覧表示",
		"Streams come from a YAML config file, from the stream flags, or both. The stream flags add one stream after those in the file.": "ストリームはYAML設定ファイル、ストリーム用フラグ、またはその両方から指定します。ストリーム用フラグはファイルのストリームの後に1つ追加します。",
		"(formats unavailable: %v)": "（フォーマット取得不可: %v）",

		// Input flags
		"YAML configuration file": "YAML設定ファイル",

		// Stream flags
		"Plugin name for a single stream":           "単一ストリームのプラグイン名",
		"Plugin options as key=value,key=value":     "プラグインオプション（key=value,key=value）",
		"Stream id (default: random UUID)":          "ストリームID（デフォルト: ランダムなUUID）",
		"Source type (testsrc, images, mp4)":        "入力の種類（testsrc, images, mp4）",
		"Source path for images or mp4":             "images または mp4 の入力パス",
		"Test source width":                         "テストソースの幅",
		"Test source height":                        "テストソースの高さ",
		"Test source frame count":                   "テストソースのフレーム数",
		"Source frame rate, e.g. 25 or 30000/1001":  "入力フレームレート（例: 25, 30000/1001）",
		"Output type (null, images, mp4)":           "出力の種類（null, images, mp4）",
		"Output path for images or mp4":             "images または mp4 の出力パス",

		// Execution flags
		"Streams processed concurrently":   "同時に処理するストリーム数",
		"Frame clone policy (copy, share)": "フレーム複製ポリシー（copy, share）",

		// Debug flags
		"Save stage configs and frames for inspection":     "ステージ設定とフレームを検査用に保存",
		"Directory for debug output":                       "デバッグ出力のディレクトリ",
		"Serve status and metrics on this address":         "このアドレスで状態とメトリクスを提供",
		"Write a run summary (Markdown, or JSON for .json)": "実行サマリーを出力（Markdown、.json の場合はJSON）",

		// Logging flags
		"Log level (debug, info, warn, error)": "ログレベル（debug, info, warn, error）",
		"Log format (console, json)":           "ログ形式（console, json）",
		"Suppress all log output":              "全てのログ出力を抑制",

		// Runtime messages
		"Interrupted, aborting streams...": "中断されました。ストリームを中止しています...",
		"Processed %d streams in %d ms":    "%d 個のストリームを %d ms で処理しました",
		"Summary saved to %s":              "サマリーを %s に保存しました",
		"Failed to write summary: %v":      "サマリーの書き込みに失敗しました: %v",

		// Summary content
		"Run Summary":    "実行サマリー",
		"Item":           "項目",
		"Value":          "値",
		"Run ID":         "実行ID",
		"Generated At":   "生成日時",
		"Duration":       "所要時間",
		"Workers":        "ワーカー数",
		"Clone Policy":   "複製ポリシー",
		"Enabled":        "有効",
		"Failed Streams": "失敗したストリーム",
		"Status":         "状態",
		"Aborted":        "中止",
		"Streams":        "ストリーム",
		"Plugin":         "プラグイン",
		"Format":         "フォーマット",
		"Size":           "サイズ",
		"Mode":           "モード",
		"Frames In":      "入力フレーム",
		"Frames Out":     "出力フレーム",
		"Flushed":        "フラッシュ",
		"State":          "ステート",
		"Totals":         "合計",
		"Output Size":    "出力サイズ",
		"Arity Warnings": "入出力数の警告",
		"Errors":         "エラー",
		"Generated by":   "生成:",
	})
}
