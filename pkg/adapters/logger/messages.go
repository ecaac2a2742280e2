package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestrator
		"Starting run %s: %d streams, %d workers": "実行 %s を開始します: %d ストリーム, %d ワーカー",
		"Run %s completed in %d ms":               "実行 %s が %d ms で完了しました",
		"Run %s finished with %d failed streams":  "実行 %s は %d 個のストリームが失敗して終了しました",
		"Stream %s failed: %v":                    "ストリーム %s が失敗しました: %v",
		"Stream %s: %s %dx%d %s -> %dx%d %s":      "ストリーム %s: %s %dx%d %s -> %dx%d %s",
		"Failed to close source: %v":              "入力のクローズに失敗しました: %v",

		// Negotiation
		"Pixel format '%s' is not recognized, skipping": "ピクセルフォーマット '%s' は不明なためスキップします",
		"Negotiated pixel format %s":                    "ピクセルフォーマット %s で合意しました",

		// Plugin adapter
		"Plugin supports formats %v":                        "プラグインの対応フォーマット: %v",
		"Plugin configured: %dx%d %s, mode %s, ratio %.2f": "プラグイン設定: %dx%d %s, モード %s, 比率 %.2f",
		"Plugin flushed %d frames":                          "プラグインが %d フレームをフラッシュしました",
		"Plugin panicked in %s: %v":                         "プラグインが %s でパニックしました: %v",

		// Stage
		"Stage state %s -> %s":                           "ステージ状態 %s -> %s",
		"Stage ready: %dx%d %s, %s":                      "ステージ準備完了: %dx%d %s, %s",
		"Stage closed (%s): %d frames in, %d frames out": "ステージ終了 (%s): 入力 %d フレーム, 出力 %d フレーム",
		"Stage aborted in state %s: %v":                  "状態 %s のステージを中止しました: %v",
		"Negotiation failed: %v":                         "フォーマットのネゴシエーションに失敗しました: %v",
		"Plugin setup failed: %v":                        "プラグインのセットアップに失敗しました: %v",
		"Plugin fault, closing stream: %v":               "プラグインの障害のためストリームを閉じます: %v",
		"Arity violation: %v":                            "入出力数の違反: %v",
		"Output pts %d is before previous %d":            "出力 pts %d が直前の %d より前です",
		"Forwarding stopped, closing stream: %v":         "転送が停止したためストリームを閉じます: %v",
		"Failed to save debug output: %v":                "デバッグ出力の保存に失敗しました: %v",

		// Flush coordinator
		"End of stream on %s stage ignored": "%s 状態のステージへのストリーム終端を無視しました",
		"Flushing %d buffered frames":       "バッファ済みの %d フレームをフラッシュ中",
		"Plugin fault during flush: %v":     "フラッシュ中にプラグイン障害が発生しました: %v",

		// Status server
		"Status server listening on %s": "ステータスサーバーが %s で待機中",
		"Status server stopped: %v":     "ステータスサーバーが停止しました: %v",
		"HTTP %s %s %d (%d ms)":         "HTTP %s %s %d (%d ms)",
	})
}
