package analyse

// DefaultGlobals is the curated set of names that resolve in any client
// environment and therefore never need to be carried into an extracted
// module: language primordials, the web platform surface handlers
// commonly touch, timers, console, crypto, Intl, and `arguments`.
// Callers may extend the set per plugin instance but cannot shrink it.
var DefaultGlobals = NewScope(
	// Language primordials.
	"Array", "ArrayBuffer", "AggregateError", "Atomics", "BigInt",
	"BigInt64Array", "BigUint64Array", "Boolean", "DataView", "Date",
	"Error", "EvalError", "FinalizationRegistry", "Float32Array",
	"Float64Array", "Function", "Infinity", "Int8Array", "Int16Array",
	"Int32Array", "JSON", "Map", "Math", "NaN", "Number", "Object",
	"Promise", "Proxy", "RangeError", "ReferenceError", "Reflect",
	"RegExp", "Set", "SharedArrayBuffer", "String", "Symbol",
	"SyntaxError", "TypeError", "URIError", "Uint8Array",
	"Uint8ClampedArray", "Uint16Array", "Uint32Array", "WeakMap",
	"WeakRef", "WeakSet", "decodeURI", "decodeURIComponent", "encodeURI",
	"encodeURIComponent", "eval", "globalThis", "isFinite", "isNaN",
	"parseFloat", "parseInt", "undefined",

	// Web platform.
	"AbortController", "AbortSignal", "Blob", "BroadcastChannel",
	"CSS", "CustomEvent", "DOMParser", "Document", "DragEvent",
	"Element", "Event", "EventSource", "EventTarget", "File",
	"FileReader", "FormData", "HTMLElement", "HTMLInputElement",
	"Headers", "Image", "InputEvent", "IntersectionObserver",
	"KeyboardEvent", "Location", "MessageChannel", "MouseEvent",
	"MutationObserver", "Navigator", "Node", "Notification",
	"PointerEvent", "ReadableStream", "Request", "ResizeObserver",
	"Response", "SubmitEvent", "TextDecoder", "TextEncoder",
	"TouchEvent", "TransformStream", "URL", "URLSearchParams",
	"WebSocket", "WheelEvent", "Window", "Worker", "WritableStream",
	"XMLHttpRequest", "alert", "atob", "btoa", "confirm",
	"customElements", "document", "fetch", "history", "localStorage",
	"location", "matchMedia", "navigator", "performance", "prompt",
	"reportError", "screen", "sessionStorage", "structuredClone",
	"window",

	// Timers and task scheduling.
	"cancelAnimationFrame", "cancelIdleCallback", "clearInterval",
	"clearTimeout", "queueMicrotask", "requestAnimationFrame",
	"requestIdleCallback", "setInterval", "setTimeout",

	// Diagnostics and misc.
	"console", "crypto", "Intl", "arguments",
)
