package harvest

import "form-filler/internal/domain/entity"

// shared helpers prepended to every page script
const helpersJS = `
const PIERCE = '` + entity.ShadowPierce + `';
const norm = (s) => (s || '').replace(/\s+/g, ' ').trim();
const esc = (v) => (window.CSS && CSS.escape) ? CSS.escape(v) : String(v).replace(/["\\]/g, '\\$&');
const quote = (v) => String(v).replace(/"/g, '\\"');
const ATTRS = ['type', 'name', 'id', 'class', 'placeholder', 'aria-label', 'contenteditable'];
const isField = (n) => {
	const tag = (n.tagName || '').toLowerCase();
	const type = ((n.getAttribute && n.getAttribute('type')) || '').toLowerCase();
	return tag === 'input' || tag === 'textarea' || tag === 'select' ||
		(tag === 'button' && type === 'submit') ||
		(!!n.getAttribute && n.getAttribute('contenteditable') === 'true');
};
const selectorOf = (n, tag) => {
	if (n.id) return '#' + esc(n.id);
	for (const a of ['name', 'aria-label', 'placeholder']) {
		const v = n.getAttribute(a);
		if (v) return tag + '[' + a + '="' + quote(v) + '"]';
	}
	return tag;
};
// pathIn строит CSS-путь от корня дерева (документа или shadow root)
const pathIn = (n) => {
	const parts = [];
	for (let cur = n; cur && cur.nodeType === 1; cur = cur.parentNode) {
		if (cur.id) {
			parts.unshift('#' + esc(cur.id));
			break;
		}
		let idx = 1;
		for (let s = cur.previousElementSibling; s; s = s.previousElementSibling) {
			if (s.tagName === cur.tagName) idx++;
		}
		parts.unshift(cur.tagName.toLowerCase() + ':nth-of-type(' + idx + ')');
	}
	return parts.join(' > ');
};
const uniqueIn = (n) => {
	const sel = selectorOf(n, n.tagName.toLowerCase());
	try {
		if (n.getRootNode().querySelectorAll(sel).length === 1) return sel;
	} catch (e) {}
	return pathIn(n);
};
const xpathOf = (n, withAttrs) => {
	if (n.id) return '//*[@id="' + n.id + '"]';
	if (withAttrs) {
		for (const a of ['name', 'data-testid', 'aria-label', 'placeholder']) {
			const v = n.getAttribute && n.getAttribute(a);
			if (v) return '//' + n.tagName.toLowerCase() + '[@' + a + '="' + v + '"]';
		}
	}
	const parts = [];
	for (let cur = n; cur && cur.nodeType === 1; cur = cur.parentNode) {
		let idx = 0;
		for (let s = cur.previousSibling; s; s = s.previousSibling) {
			if (s.nodeType === 1 && s.tagName === cur.tagName) idx++;
		}
		const t = cur.tagName.toLowerCase();
		parts.unshift(idx ? t + '[' + (idx + 1) + ']' : t);
	}
	return parts.length ? '/' + parts.join('/') : '';
};
const labelOf = (n) => {
	try {
		if (n.labels && n.labels.length) {
			return Array.from(n.labels).map(l => norm(l.innerText || l.textContent)).join(' ');
		}
		if (n.id) {
			const l = document.querySelector('label[for="' + quote(n.id) + '"]');
			if (l) return norm(l.innerText || l.textContent);
		}
		const wrap = n.closest && n.closest('label');
		if (wrap) return norm(wrap.innerText || wrap.textContent);
	} catch (e) {}
	return '';
};
const nearbyOf = (n) => {
	try {
		const p = n.closest('label, .form-group, .field, .input-group') || n.parentElement;
		if (p) return norm(p.innerText || p.textContent).slice(0, 300);
	} catch (e) {}
	return '';
};
const attrsOf = (n) => {
	const out = {};
	for (const k of ATTRS) {
		const v = n.getAttribute && n.getAttribute(k);
		if (v) out[k] = v;
	}
	return out;
};
`

// harvestJS returns every field-like element of the frame document and of
// all open shadow roots below it. Rects are frame viewport CSS pixels.
const harvestJS = `() => {` + helpersJS + `
	const out = [];
	const describe = (n, hosts) => {
		const shadow = hosts !== null;
		const r = n.getBoundingClientRect();
		if (!r || r.width < 8 || r.height < 8) return;
		const tag = n.tagName.toLowerCase();
		const attributes = attrsOf(n);
		if (shadow) {
			attributes.label_text = '';
			attributes.nearby_text = norm(n.parentElement && n.parentElement.textContent).slice(0, 300);
		} else {
			attributes.label_text = labelOf(n);
			attributes.nearby_text = nearbyOf(n);
		}
		out.push({
			x: r.x, y: r.y, w: r.width, h: r.height,
			tag: tag,
			attributes: attributes,
			selector: shadow ? hosts.concat([uniqueIn(n)]).join(PIERCE) : selectorOf(n, tag),
			xpath: shadow ? '' : xpathOf(n, false),
			shadow: shadow,
		});
	};

	for (const n of document.querySelectorAll("input, textarea, select, button[type='submit'], [contenteditable='true']")) {
		try { describe(n, null); } catch (e) {}
	}

	const roots = [];
	for (const n of document.querySelectorAll('*')) {
		if (n.shadowRoot) roots.push({root: n.shadowRoot, hosts: [uniqueIn(n)]});
	}
	const seen = new WeakSet();
	while (roots.length) {
		const {root, hosts} = roots.pop();
		for (const n of root.querySelectorAll('*')) {
			if (n.shadowRoot) roots.push({root: n.shadowRoot, hosts: hosts.concat([uniqueIn(n)])});
			if (seen.has(n)) continue;
			seen.add(n);
			try { if (isField(n)) describe(n, hosts); } catch (e) {}
		}
	}
	return out;
}`

// pointJS describes the deepest element at a page point (document CSS
// pixels). The point is scrolled into view when needed and the original
// scroll position is restored before returning.
const pointJS = `(px, py) => {` + helpersJS + `
	const sx = window.scrollX, sy = window.scrollY;
	const jump = (left, top) => window.scrollTo({left: left, top: top, behavior: 'instant'});
	try {
		let x = px - window.scrollX, y = py - window.scrollY;
		if (y < 0 || y >= window.innerHeight || x < 0 || x >= window.innerWidth) {
			jump(Math.max(0, px - window.innerWidth / 2), Math.max(0, py - window.innerHeight / 2));
			x = px - window.scrollX;
			y = py - window.scrollY;
		}
		let el = document.elementFromPoint(x, y);
		if (!el) return null;
		const hosts = [];
		while (el && el.shadowRoot) {
			const inner = el.shadowRoot.elementFromPoint(x, y);
			if (!inner || inner === el) break;
			hosts.push(uniqueIn(el));
			el = inner;
		}
		const shadow = hosts.length > 0;
		const tag = (el.tagName || '').toLowerCase();
		const attributes = attrsOf(el);
		attributes.label_text = shadow ? '' : labelOf(el);
		attributes.nearby_text = nearbyOf(el);
		return {
			tag: tag,
			attributes: attributes,
			selector: shadow ? hosts.concat([uniqueIn(el)]).join(PIERCE) : selectorOf(el, tag),
			xpath: shadow ? '' : xpathOf(el, true),
			shadow: shadow,
		};
	} finally {
		jump(sx, sy);
	}
}`

const transformJS = `() => ({
	scrollX: window.scrollX,
	scrollY: window.scrollY,
	devicePixelRatio: window.devicePixelRatio || 1
})`

const countFieldsJS = `() => document.querySelectorAll("input, textarea, select, [contenteditable='true']").length`

// primaryFormJS returns the viewport rect of the largest visible form.
const primaryFormJS = `(minW, minH) => {
	let best = null;
	for (const f of document.querySelectorAll('form')) {
		const r = f.getBoundingClientRect();
		const style = window.getComputedStyle(f);
		if (style.display === 'none' || style.visibility === 'hidden') continue;
		if (r.width < minW || r.height < minH) continue;
		const area = r.width * r.height;
		if (!best || area > best.area) best = {x: r.x, y: r.y, w: r.width, h: r.height, area: area};
	}
	return best;
}`

const captchaProbeJS = `(selectors) => {
	for (const sel of selectors) {
		for (const el of document.querySelectorAll(sel)) {
			const r = el.getBoundingClientRect();
			const style = window.getComputedStyle(el);
			if (r.width > 0 && r.height > 0 && style.visibility !== 'hidden' && style.display !== 'none') return true;
		}
	}
	return false;
}`
