package html

// CSRFFormScript copies the X-CSRF-Token cookie into every POST form as a
// hidden _csrf field and into the header of unsafe fetch calls.
func CSRFFormScript() string {
	return `<script>
(function () {
  function token() {
    var m = document.cookie.match(/(?:^|;\s*)X-CSRF-Token=([^;]*)/);
    return m ? decodeURIComponent(m[1]) : "";
  }

  function fillForms() {
    var t = token();
    if (!t) return;
    document.querySelectorAll("form[method='post' i]").forEach(function (form) {
      if (form.querySelector("input[name='_csrf']")) return;
      var input = document.createElement("input");
      input.type = "hidden";
      input.name = "_csrf";
      input.value = t;
      form.appendChild(input);
    });
  }

  var safe = { GET: true, HEAD: true, OPTIONS: true };
  var nativeFetch = window.fetch;
  window.fetch = function (input, init) {
    init = init || {};
    var method = (init.method || "GET").toUpperCase();
    if (!safe[method]) {
      var headers = new Headers(init.headers || {});
      if (!headers.has("X-CSRF-Token")) headers.set("X-CSRF-Token", token());
      init.headers = headers;
    }
    return nativeFetch(input, init);
  };

  if (document.readyState === "loading") {
    document.addEventListener("DOMContentLoaded", fillForms);
  } else {
    fillForms();
  }
})();
</script>`
}
